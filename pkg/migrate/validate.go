package migrate

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"regexp"
	"strings"

	"go.uber.org/multierr"
)

// sqlFileRe matches YYYYMMDDHHMMSS_snake_name.sql.
var sqlFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

func ValidateDir(dir string) error {
	if dir == "" {
		return errors.New("dir is required")
	}
	return Validate(os.DirFS(dir), ".")
}

func ValidateEmbedded() error {
	return Validate(embedded, embeddedDir)
}

// Validate checks every .sql file under dir in fsys: the filename format,
// unique versions, and that both goose sections are present. Every problem
// found is reported, not just the first.
func Validate(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("read dir %q: %w", dir, err)
	}

	var problems error
	versions := map[string]string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || path.Ext(name) != ".sql" {
			continue
		}

		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			problems = multierr.Append(problems, fmt.Errorf("%s: filename must look like YYYYMMDDHHMMSS_name.sql", name))
			continue
		}
		if other, dup := versions[m[1]]; dup {
			problems = multierr.Append(problems, fmt.Errorf("%s: version %s already used by %s", name, m[1], other))
		}
		versions[m[1]] = name

		problems = multierr.Append(problems, checkAnnotations(fsys, path.Join(dir, name)))
	}

	if problems == nil && len(versions) == 0 {
		return fmt.Errorf("no migrations found in %q", dir)
	}
	return problems
}

// checkAnnotations requires a "-- +goose Up" line followed later by a
// "-- +goose Down" line.
func checkAnnotations(fsys fs.FS, file string) error {
	f, err := fsys.Open(file)
	if err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}
	defer f.Close()

	var up, down bool
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		switch strings.TrimSpace(scanner.Text()) {
		case "-- +goose Up":
			up = true
		case "-- +goose Down":
			if !up {
				return fmt.Errorf("%s: \"-- +goose Down\" appears before \"-- +goose Up\"", path.Base(file))
			}
			down = true
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}

	switch {
	case !up:
		return fmt.Errorf("%s: missing \"-- +goose Up\"", path.Base(file))
	case !down:
		return fmt.Errorf("%s: missing \"-- +goose Down\"", path.Base(file))
	}
	return nil
}
