package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthLive(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}
	rec := httptest.NewRecorder()
	HealthLive(cfg)(rec, newRequest(http.MethodGet, "/health/live", "", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", rec.Header().Get("X-Storefront-Env"))
	var data map[string]string
	decode(t, rec, &data)
	assert.Equal(t, "live", data["status"])
}

func TestHealthReadyReportsFailingDependency(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}
	deps := map[string]Pinger{
		"storage": pingFunc(func(context.Context) error { return errors.New("connection refused") }),
	}
	rec := httptest.NewRecorder()
	HealthReady(cfg, nil, deps)(rec, newRequest(http.MethodGet, "/health/ready", "", ""))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	env := decode(t, rec, nil)
	require.NotNil(t, env.Error)
	assert.Equal(t, "DEPENDENCY_ERROR", env.Error.Code)
}

func TestHealthReadyOK(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}
	deps := map[string]Pinger{
		"storage": pingFunc(func(context.Context) error { return nil }),
		"redis":   nil,
	}
	rec := httptest.NewRecorder()
	HealthReady(cfg, nil, deps)(rec, newRequest(http.MethodGet, "/health/ready", "", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	var data struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	decode(t, rec, &data)
	assert.Equal(t, "ready", data.Status)
	assert.Equal(t, map[string]string{"storage": "ok"}, data.Checks)
}
