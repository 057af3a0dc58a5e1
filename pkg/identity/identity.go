// Package identity authenticates shoppers against an identity service.
package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/db"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

const minPasswordLength = 6

// Identity is a signed-in user as reported by the provider.
type Identity struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	AccessToken  string    `json:"access_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
}

// Provider signs users in and out. Rejections are AUTH_FAILED errors whose
// message can be shown to the user; transport failures are DEPENDENCY_ERROR.
type Provider interface {
	Name() string
	SignIn(ctx context.Context, email, password string) (Identity, error)
	SignUp(ctx context.Context, email, password string) (Identity, error)
	SignOut(ctx context.Context, id Identity) error
}

// New builds the provider selected by cfg.Identity.Driver. The local driver
// requires a database client.
func New(cfg *config.Config, dbClient *db.Client) (Provider, error) {
	switch cfg.Identity.Driver {
	case config.IdentityDriverLocal:
		return NewLocal(LocalParams{
			DB:       dbClient,
			Password: cfg.Password,
			Session:  cfg.Session,
			TokenTTL: cfg.Identity.TokenTTL(),
		})
	case config.IdentityDriverSupabase:
		return NewSupabase(SupabaseConfig{
			URL:    cfg.Identity.SupabaseURL,
			APIKey: cfg.Identity.SupabaseAPIKey,
		})
	default:
		return nil, fmt.Errorf("unsupported identity driver %q", cfg.Identity.Driver)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateCredentials(email, password string) error {
	if email == "" {
		return pkgerrors.New(pkgerrors.CodeAuthFailed, "Email is required")
	}
	if password == "" {
		return pkgerrors.New(pkgerrors.CodeAuthFailed, "Password is required")
	}
	return nil
}
