package auth

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/angelmondragon/storefront/internal/notify"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/identity"
	"github.com/angelmondragon/storefront/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	mu        sync.Mutex
	signInErr error
	signUpErr error
	outErr    error
	signIns   int
	signOuts  []identity.Identity
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) SignIn(_ context.Context, email, _ string) (identity.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signIns++
	if p.signInErr != nil {
		return identity.Identity{}, p.signInErr
	}
	return identity.Identity{UserID: "u-" + email, Email: email, AccessToken: "tok"}, nil
}

func (p *stubProvider) SignUp(_ context.Context, email, _ string) (identity.Identity, error) {
	if p.signUpErr != nil {
		return identity.Identity{}, p.signUpErr
	}
	return identity.Identity{UserID: "new-" + email, Email: email}, nil
}

func (p *stubProvider) SignOut(_ context.Context, id identity.Identity) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.outErr != nil {
		return p.outErr
	}
	p.signOuts = append(p.signOuts, id)
	return nil
}

type call struct {
	email string
	ok    bool
}

func record(calls *[]call) Observer {
	return func(id identity.Identity, ok bool) {
		*calls = append(*calls, call{email: id.Email, ok: ok})
	}
}

func withToasts() (context.Context, *notify.Buffer) {
	buf := notify.NewBuffer()
	return notify.WithBuffer(context.Background(), buf), buf
}

func TestLoginNotifiesObserversAndToasts(t *testing.T) {
	s := NewSession(SessionOptions{Provider: &stubProvider{}})
	var calls []call
	s.Subscribe(record(&calls))

	ctx, buf := withToasts()
	require.NoError(t, s.Login(ctx, "ada@example.com", "pw"))

	id, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "ada@example.com", id.Email)
	assert.Equal(t, []call{{ok: false}, {email: "ada@example.com", ok: true}}, calls)
	assert.Equal(t, []types.Notification{{
		Title:       "Welcome back!",
		Description: "You have successfully logged in.",
		Variant:     notify.VariantDefault,
	}}, buf.Drain())
}

func TestFailedLoginLeavesSessionAndNotifiesNobody(t *testing.T) {
	provider := &stubProvider{signInErr: pkgerrors.New(pkgerrors.CodeAuthFailed, "Invalid login credentials")}
	s := NewSession(SessionOptions{Provider: provider})
	var calls []call
	s.Subscribe(record(&calls))

	ctx, buf := withToasts()
	err := s.Login(ctx, "ada@example.com", "bad")

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, OpLogin, authErr.Op)
	assert.Equal(t, "Invalid login credentials", authErr.Message)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeAuthFailed))

	_, ok := s.Current()
	assert.False(t, ok)
	assert.Len(t, calls, 1, "only the replay")
	assert.Equal(t, []types.Notification{{
		Title:       "Login failed",
		Description: "Invalid login credentials",
		Variant:     notify.VariantDestructive,
	}}, buf.Drain())
}

func TestUntypedProviderErrorBecomesAuthFailed(t *testing.T) {
	s := NewSession(SessionOptions{Provider: &stubProvider{signUpErr: errors.New("email taken")}})
	err := s.Register(context.Background(), "ada@example.com", "pw")
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeAuthFailed))
	assert.Equal(t, "email taken", pkgerrors.As(err).Message())
}

func TestRegisterSignsIn(t *testing.T) {
	s := NewSession(SessionOptions{Provider: &stubProvider{}})
	ctx, buf := withToasts()
	require.NoError(t, s.Register(ctx, "bob@example.com", "pw"))

	id, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "new-bob@example.com", id.UserID)
	toasts := buf.Drain()
	require.Len(t, toasts, 1)
	assert.Equal(t, "Account created", toasts[0].Title)
}

func TestLogoutClearsIdentity(t *testing.T) {
	provider := &stubProvider{}
	s := NewSession(SessionOptions{Provider: provider, Initial: &identity.Identity{UserID: "u", Email: "ada@example.com", AccessToken: "tok"}})
	var calls []call
	s.Subscribe(record(&calls))

	ctx, buf := withToasts()
	require.NoError(t, s.Logout(ctx))

	_, ok := s.Current()
	assert.False(t, ok)
	require.Len(t, provider.signOuts, 1)
	assert.Equal(t, "tok", provider.signOuts[0].AccessToken)
	assert.Equal(t, []call{{email: "ada@example.com", ok: true}, {ok: false}}, calls)
	assert.Equal(t, "Logged out", buf.Drain()[0].Title)
}

func TestLogoutWithoutIdentitySkipsProvider(t *testing.T) {
	provider := &stubProvider{}
	s := NewSession(SessionOptions{Provider: provider})
	var calls []call
	s.Subscribe(record(&calls))

	require.NoError(t, s.Logout(context.Background()))
	assert.Empty(t, provider.signOuts)
	assert.Len(t, calls, 1, "no change, no notification")
}

func TestFailedLogoutKeepsIdentity(t *testing.T) {
	provider := &stubProvider{outErr: pkgerrors.New(pkgerrors.CodeDependency, "identity service unavailable")}
	s := NewSession(SessionOptions{Provider: provider, Initial: &identity.Identity{UserID: "u", AccessToken: "tok"}})

	ctx, buf := withToasts()
	err := s.Logout(ctx)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeDependency))

	_, ok := s.Current()
	assert.True(t, ok)
	toasts := buf.Drain()
	require.Len(t, toasts, 1)
	assert.Equal(t, "Logout failed", toasts[0].Title)
	assert.Equal(t, notify.VariantDestructive, toasts[0].Variant)
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	s := NewSession(SessionOptions{Provider: &stubProvider{}})
	var calls []call
	unsubscribe := s.Subscribe(record(&calls))
	unsubscribe()

	require.NoError(t, s.Login(context.Background(), "ada@example.com", "pw"))
	assert.Len(t, calls, 1)
}
