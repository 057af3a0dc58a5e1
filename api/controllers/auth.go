package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/internal/auth"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// SessionRegistry resolves the auth session of a browser session.
// Peek serves reads and may return a session that is not kept.
type SessionRegistry interface {
	Get(ctx context.Context, sessionID string) (*auth.Session, error)
	Peek(ctx context.Context, sessionID string) (*auth.Session, error)
}

func AuthLogin(reg SessionRegistry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := sessionFor(r, reg.Get)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := session.Login(r.Context(), req.Email, req.Password); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(r.Context(), w, auth.NewSessionView(session.Current()))
	}
}

func AuthRegister(reg SessionRegistry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.RegisterRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if req.Password != req.ConfirmPassword {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "Passwords do not match").
					WithDetails(map[string]string{"confirm_password": "Passwords do not match"}))
			return
		}

		session, err := sessionFor(r, reg.Get)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := session.Register(r.Context(), req.Email, req.Password); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(r.Context(), w, http.StatusCreated, auth.NewSessionView(session.Current()))
	}
}

func AuthLogout(reg SessionRegistry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := sessionFor(r, reg.Peek)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := session.Logout(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(r.Context(), w, auth.NewSessionView(session.Current()))
	}
}

// AuthSession reports whether the browser session is signed in.
func AuthSession(reg SessionRegistry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := sessionFor(r, reg.Peek)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(r.Context(), w, auth.NewSessionView(session.Current()))
	}
}

func sessionFor(r *http.Request, resolve func(context.Context, string) (*auth.Session, error)) (*auth.Session, error) {
	sessionID := middleware.SessionIDFromContext(r.Context())
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "browser session missing from context")
	}
	return resolve(r.Context(), sessionID)
}
