// Package session issues and resolves the signed cookie that identifies a
// browser session. Carts and sign-in state are scoped to that id.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/storefront/pkg/auth"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/google/uuid"
)

var ErrInvalidSession = errors.New("invalid session cookie")

// Manager mints and validates browser session cookies.
type Manager struct {
	cfg    config.SessionConfig
	signer *auth.Signer
	now    func() time.Time
}

// NewManager constructs a session manager for the configured cookie.
func NewManager(cfg config.SessionConfig) (*Manager, error) {
	if strings.TrimSpace(cfg.CookieName) == "" {
		return nil, errors.New("session cookie name is required")
	}
	signer, err := auth.NewSigner(cfg)
	if err != nil {
		return nil, err
	}
	return &Manager{cfg: cfg, signer: signer, now: time.Now}, nil
}

// Resolution is the outcome of resolving a request's session.
type Resolution struct {
	ID string
	// Cookie is set when a new session was started and must be sent back.
	Cookie *http.Cookie
}

// Resolve returns the session carried by the request cookie, or starts a new
// one when the cookie is missing or fails validation.
func (m *Manager) Resolve(r *http.Request) (Resolution, error) {
	if id, err := m.Lookup(r); err == nil {
		return Resolution{ID: id}, nil
	}

	id := NewSessionID()
	token, err := m.signer.SessionToken(m.now(), id)
	if err != nil {
		return Resolution{}, err
	}
	return Resolution{ID: id, Cookie: m.cookie(token)}, nil
}

// Lookup validates the session cookie without starting a new session.
func (m *Manager) Lookup(r *http.Request) (string, error) {
	c, err := r.Cookie(m.cfg.CookieName)
	if err != nil || strings.TrimSpace(c.Value) == "" {
		return "", ErrInvalidSession
	}
	id, err := m.signer.ParseSession(c.Value)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	return id, nil
}

func (m *Manager) cookie(token string) *http.Cookie {
	c := &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	if m.cfg.TTL > 0 {
		c.MaxAge = int(m.cfg.TTL / time.Second)
	}
	return c
}

// NewSessionID produces the identifier used as the JWT jti and storage scope.
func NewSessionID() string {
	return uuid.NewString()
}
