// Package auth keeps the signed-in state of each browser session.
package auth

import (
	"context"
	"sync"

	"github.com/angelmondragon/storefront/internal/notify"
	"github.com/angelmondragon/storefront/pkg/identity"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
)

const (
	OpLogin    = "login"
	OpRegister = "register"
	OpLogout   = "logout"
)

// Observer receives the identity and whether one is present.
type Observer func(identity.Identity, bool)

// SessionOptions wires a Session. Provider is required.
type SessionOptions struct {
	Provider  identity.Provider
	SessionID string
	Logger    *logger.Logger
	Metrics   *metrics.AuthMetrics
	// Initial restores a previously persisted identity.
	Initial *identity.Identity
}

// Session is the auth state of one browser session. Provider calls are made
// without holding the lock, so a slow identity service never blocks readers.
type Session struct {
	mu      sync.Mutex
	current *identity.Identity

	dispatchMu sync.Mutex
	observers  []observerEntry
	nextID     int

	provider  identity.Provider
	sessionID string
	logg      *logger.Logger
	metrics   *metrics.AuthMetrics
}

type observerEntry struct {
	id int
	fn Observer
}

func NewSession(opts SessionOptions) *Session {
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	s := &Session{
		provider:  opts.Provider,
		sessionID: opts.SessionID,
		logg:      opts.Logger,
		metrics:   opts.Metrics,
	}
	if opts.Initial != nil {
		id := *opts.Initial
		s.current = &id
	}
	return s
}

// Current returns the signed-in identity, if any.
func (s *Session) Current() (identity.Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return identity.Identity{}, false
	}
	return *s.current, true
}

func (s *Session) Login(ctx context.Context, email, password string) error {
	id, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		return s.fail(ctx, OpLogin, "Login failed", err)
	}
	s.set(&id)
	s.succeed(ctx, OpLogin, "Welcome back!", "You have successfully logged in.")
	return nil
}

func (s *Session) Register(ctx context.Context, email, password string) error {
	id, err := s.provider.SignUp(ctx, email, password)
	if err != nil {
		return s.fail(ctx, OpRegister, "Registration failed", err)
	}
	s.set(&id)
	s.succeed(ctx, OpRegister, "Account created", "Your account has been successfully created.")
	return nil
}

// Logout signs out with the provider and clears the identity. Logging out
// without an identity succeeds.
func (s *Session) Logout(ctx context.Context) error {
	if current, ok := s.Current(); ok {
		if err := s.provider.SignOut(ctx, current); err != nil {
			return s.fail(ctx, OpLogout, "Logout failed", err)
		}
	}
	s.set(nil)
	s.succeed(ctx, OpLogout, "Logged out", "You have been successfully logged out.")
	return nil
}

// Subscribe calls fn with the current state, then after every change, in
// registration order. Observers must not call back into the session.
func (s *Session) Subscribe(fn Observer) func() {
	s.mu.Lock()
	id, ok := s.snapshotLocked()
	s.dispatchMu.Lock()
	s.mu.Unlock()

	s.nextID++
	entryID := s.nextID
	s.observers = append(s.observers, observerEntry{id: entryID, fn: fn})
	fn(id, ok)
	s.dispatchMu.Unlock()

	return func() {
		s.dispatchMu.Lock()
		defer s.dispatchMu.Unlock()
		for i, o := range s.observers {
			if o.id == entryID {
				s.observers = append(s.observers[:i], s.observers[i+1:]...)
				return
			}
		}
	}
}

func (s *Session) set(next *identity.Identity) {
	s.mu.Lock()
	if s.current == nil && next == nil {
		s.mu.Unlock()
		return
	}
	s.current = next
	id, ok := s.snapshotLocked()
	s.dispatchMu.Lock()
	s.mu.Unlock()

	defer s.dispatchMu.Unlock()
	for _, o := range s.observers {
		o.fn(id, ok)
	}
}

func (s *Session) snapshotLocked() (identity.Identity, bool) {
	if s.current == nil {
		return identity.Identity{}, false
	}
	return *s.current, true
}

func (s *Session) succeed(ctx context.Context, op, title, description string) {
	s.metrics.IncAttempt(op, metrics.ResultOK)
	notify.Info(ctx, title, description)

	infoCtx := s.logg.WithFields(ctx, map[string]any{
		"session_id": s.sessionID,
		"op":         op,
		"provider":   s.provider.Name(),
	})
	s.logg.Info(infoCtx, "auth.session.changed")
}

func (s *Session) fail(ctx context.Context, op, title string, err error) error {
	authErr := newAuthError(op, err)
	s.metrics.IncAttempt(op, metrics.ResultError)
	notify.Destructive(ctx, title, authErr.Message)

	warnCtx := s.logg.WithFields(ctx, map[string]any{
		"session_id": s.sessionID,
		"op":         op,
		"error":      err.Error(),
	})
	s.logg.Warn(warnCtx, "auth.session.failed")
	return authErr
}
