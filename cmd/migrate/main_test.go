package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCreateThenValidate(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, "create", "Add Orders", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "created migration:")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasSuffix(entries[0].Name(), "_add_orders.sql"))

	out, err = run(t, "validate", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "migration validation passed")
}

func TestValidateEmbedded(t *testing.T) {
	_, err := run(t, "validate")
	require.NoError(t, err)
}

func TestValidateRejectsBadFilename(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "init.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))

	_, err := run(t, "validate", "--dir", dir)
	require.Error(t, err)
}

func TestVersionRequiresArgument(t *testing.T) {
	_, err := run(t, "version")
	require.Error(t, err)
}
