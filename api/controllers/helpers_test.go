package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/internal/notify"
	"github.com/angelmondragon/storefront/pkg/types"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Data          json.RawMessage      `json:"data"`
	Error         *types.APIError      `json:"error"`
	Notifications []types.Notification `json:"notifications"`
}

func newRequest(method, target, body, sessionID string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	ctx := notify.WithBuffer(req.Context(), notify.NewBuffer())
	if sessionID != "" {
		ctx = middleware.WithSessionID(ctx, sessionID)
	}
	return req.WithContext(ctx)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	if data != nil && env.Data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }
