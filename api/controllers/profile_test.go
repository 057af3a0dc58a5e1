package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront/internal/profile"
)

func TestProfileRequiresSignIn(t *testing.T) {
	rec := httptest.NewRecorder()
	ProfileFetch(newAuthRegistry(), nil)(rec, newRequest(http.MethodGet, "/profile", "", "browser-1"))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	env := decode(t, rec, nil)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)
}

func TestProfileForSignedInUser(t *testing.T) {
	reg := newAuthRegistry()
	rec := httptest.NewRecorder()
	AuthLogin(reg, nil)(rec, newRequest(http.MethodPost, "/auth/login",
		`{"email":"ada@example.com","password":"secret1"}`, "browser-1"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	ProfileFetch(reg, nil)(rec, newRequest(http.MethodGet, "/profile", "", "browser-1"))
	require.Equal(t, http.StatusOK, rec.Code)
	var view profile.View
	decode(t, rec, &view)
	assert.Equal(t, "ada@example.com", view.Email)
	assert.Equal(t, "user-1", view.UserID)
	assert.Empty(t, view.Orders)
}
