package responses

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/storefront/internal/notify"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) types.ErrorEnvelope {
	t.Helper()
	var body types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestWriteSuccessOmitsEmptyNotifications(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccess(context.Background(), rec, map[string]string{"hello": "world"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data":{"hello":"world"}}`, rec.Body.String())
}

func TestWriteSuccessDrainsNotifications(t *testing.T) {
	ctx := notify.WithBuffer(context.Background(), notify.NewBuffer())
	notify.Info(ctx, "Cart cleared", "Your cart has been cleared.")

	rec := httptest.NewRecorder()
	WriteSuccessStatus(ctx, rec, http.StatusCreated, nil)

	assert.Equal(t, http.StatusCreated, rec.Code)
	var body types.SuccessEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Notifications, 1)
	assert.Equal(t, "Your cart has been cleared.", body.Notifications[0].Description)
	assert.Empty(t, notify.Drain(ctx), "buffer is drained")
}

func TestWriteErrorRendering(t *testing.T) {
	cases := []struct {
		name        string
		err         error
		status      int
		code        string
		message     string
		wantDetails bool
	}{
		{
			name:        "validation keeps message and details",
			err:         pkgerrors.New(pkgerrors.CodeValidation, "bad input").WithDetails(map[string]string{"field": "quantity"}),
			status:      http.StatusBadRequest,
			code:        "VALIDATION_ERROR",
			message:     "bad input",
			wantDetails: true,
		},
		{
			name:    "wrapped auth failure is found in the chain",
			err:     fmt.Errorf("login: %w", pkgerrors.New(pkgerrors.CodeAuthFailed, "Invalid login credentials")),
			status:  http.StatusUnauthorized,
			code:    "AUTH_FAILED",
			message: "Invalid login credentials",
		},
		{
			name:    "dependency hides its message",
			err:     pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("dial tcp"), "cart could not be saved"),
			status:  http.StatusServiceUnavailable,
			code:    "DEPENDENCY_ERROR",
			message: "dependency unavailable",
		},
		{
			name:    "untyped errors become internal",
			err:     errors.New("boom"),
			status:  http.StatusInternalServerError,
			code:    "INTERNAL_ERROR",
			message: "internal server error",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(context.Background(), nil, rec, tc.err)

			assert.Equal(t, tc.status, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, tc.code, body.Error.Code)
			assert.Equal(t, tc.message, body.Error.Message)
			assert.Equal(t, tc.wantDetails, body.Error.Details != nil)
		})
	}
}

func TestWriteErrorLogsByStatus(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{Output: &buf})

	WriteError(context.Background(), logg, httptest.NewRecorder(), errors.New("boom"))
	assert.Contains(t, buf.String(), `"message":"request.error"`)
	assert.Contains(t, buf.String(), `"error_code":"INTERNAL_ERROR"`)

	buf.Reset()
	WriteError(context.Background(), logg, httptest.NewRecorder(), pkgerrors.New(pkgerrors.CodeNotFound, "Product not found"))
	assert.Contains(t, buf.String(), `"message":"request.rejected"`)
	assert.Contains(t, buf.String(), `"level":"warn"`)
}
