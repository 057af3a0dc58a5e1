package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	gotrue "github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/gotrue-go/types"
	"github.com/supabase-community/supabase-go"
)

// SupabaseConfig holds the GoTrue project coordinates.
type SupabaseConfig struct {
	URL    string
	APIKey string
}

// authAPI is the slice of the GoTrue client the provider calls.
type authAPI interface {
	SignIn(email, password string) (*types.Session, error)
	SignUp(email, password string) (*types.User, *types.Session, error)
	SignOut(accessToken string) error
}

// Supabase delegates authentication to a Supabase project.
type Supabase struct {
	api authAPI
}

func NewSupabase(cfg SupabaseConfig) (*Supabase, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("supabase URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("supabase API key is required")
	}

	client, err := supabase.NewClient(cfg.URL, cfg.APIKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}
	return &Supabase{api: gotrueAPI{client: client.Auth}}, nil
}

func (s *Supabase) Name() string { return config.IdentityDriverSupabase }

// SignIn and the other calls are synchronous HTTP round trips; the GoTrue
// client takes no context.
func (s *Supabase) SignIn(_ context.Context, email, password string) (Identity, error) {
	email = normalizeEmail(email)
	if err := validateCredentials(email, password); err != nil {
		return Identity{}, err
	}

	session, err := s.api.SignIn(email, password)
	if err != nil {
		return Identity{}, providerError(err)
	}
	return fromSession(session, email), nil
}

// SignUp signs the new user in. Projects that require email confirmation
// return no session; the identity then carries no tokens.
func (s *Supabase) SignUp(_ context.Context, email, password string) (Identity, error) {
	email = normalizeEmail(email)
	if err := validateCredentials(email, password); err != nil {
		return Identity{}, err
	}

	user, session, err := s.api.SignUp(email, password)
	if err != nil {
		return Identity{}, providerError(err)
	}
	if session != nil && session.AccessToken != "" {
		return fromSession(session, email), nil
	}
	id := Identity{Email: email}
	if user != nil {
		id.UserID = user.ID.String()
		if user.Email != "" {
			id.Email = user.Email
		}
	}
	return id, nil
}

func (s *Supabase) SignOut(_ context.Context, id Identity) error {
	if id.AccessToken == "" {
		return nil
	}
	if err := s.api.SignOut(id.AccessToken); err != nil {
		return providerError(err)
	}
	return nil
}

func fromSession(session *types.Session, email string) Identity {
	id := Identity{
		UserID:       session.User.ID.String(),
		Email:        session.User.Email,
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
	}
	if id.Email == "" {
		id.Email = email
	}
	if session.ExpiresAt > 0 {
		id.ExpiresAt = time.Unix(session.ExpiresAt, 0).UTC()
	}
	return id
}

// providerError maps GoTrue failures. Responses carrying an HTTP status are
// rejections with a user-facing message; anything else is transport.
func providerError(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "response status code") {
		return pkgerrors.New(pkgerrors.CodeAuthFailed, gotrueMessage(msg))
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "identity service unavailable")
}

// gotrueMessage extracts the "msg" or "error_description" from GoTrue's
// error text, falling back to the full text.
func gotrueMessage(text string) string {
	for _, key := range []string{`"msg":"`, `"error_description":"`, `"message":"`} {
		if i := strings.Index(text, key); i >= 0 {
			rest := text[i+len(key):]
			if j := strings.Index(rest, `"`); j > 0 {
				return rest[:j]
			}
		}
	}
	return text
}

type gotrueAPI struct {
	client gotrue.Client
}

func (g gotrueAPI) SignIn(email, password string) (*types.Session, error) {
	resp, err := g.client.SignInWithEmailPassword(email, password)
	if err != nil {
		return nil, err
	}
	return &resp.Session, nil
}

func (g gotrueAPI) SignUp(email, password string) (*types.User, *types.Session, error) {
	resp, err := g.client.Signup(types.SignupRequest{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return nil, nil, err
	}
	return &resp.User, &resp.Session, nil
}

func (g gotrueAPI) SignOut(accessToken string) error {
	return g.client.WithToken(accessToken).Logout()
}
