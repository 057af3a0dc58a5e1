package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront/internal/users"
	"github.com/angelmondragon/storefront/pkg/auth"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/db"
	"github.com/angelmondragon/storefront/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/security"
	"gorm.io/gorm"
)

const (
	invalidCredentialsMessage = "Invalid login credentials"
	alreadyRegisteredMessage  = "User already registered"
)

// LocalParams bundles the dependencies of the database-backed provider.
type LocalParams struct {
	DB       *db.Client
	Password config.PasswordConfig
	Session  config.SessionConfig
	TokenTTL time.Duration
}

// Local authenticates against the users table. Access tokens are JWTs signed
// with the session secret.
type Local struct {
	db          *db.Client
	users       *users.Repository
	passwordCfg config.PasswordConfig
	signer      *auth.Signer
	tokenTTL    time.Duration
	now         func() time.Time
}

func NewLocal(params LocalParams) (*Local, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("database client required")
	}
	if params.TokenTTL <= 0 {
		params.TokenTTL = time.Hour
	}
	signer, err := auth.NewSigner(params.Session)
	if err != nil {
		return nil, err
	}
	return &Local{
		db:          params.DB,
		users:       users.NewRepository(params.DB.DB()),
		passwordCfg: params.Password,
		signer:      signer,
		tokenTTL:    params.TokenTTL,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

func (l *Local) Name() string { return config.IdentityDriverLocal }

func (l *Local) SignIn(ctx context.Context, email, password string) (Identity, error) {
	email = normalizeEmail(email)
	if err := validateCredentials(email, password); err != nil {
		return Identity{}, err
	}

	user, err := l.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return Identity{}, pkgerrors.New(pkgerrors.CodeAuthFailed, invalidCredentialsMessage)
		}
		return Identity{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}

	valid, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return Identity{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return Identity{}, pkgerrors.New(pkgerrors.CodeAuthFailed, invalidCredentialsMessage)
	}

	var rehash string
	if security.NeedsRehash(user.PasswordHash, l.passwordCfg) {
		if rehash, err = security.HashPassword(password, l.passwordCfg); err != nil {
			return Identity{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rehash password")
		}
	}

	now := l.now()
	if err := l.users.RecordSignIn(ctx, user.ID, now, rehash); err != nil {
		return Identity{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record sign in")
	}
	user.LastLoginAt = &now

	return l.issue(user, now)
}

func (l *Local) SignUp(ctx context.Context, email, password string) (Identity, error) {
	email = normalizeEmail(email)
	if err := validateCredentials(email, password); err != nil {
		return Identity{}, err
	}
	if len(password) < minPasswordLength {
		return Identity{}, pkgerrors.New(pkgerrors.CodeAuthFailed,
			fmt.Sprintf("Password should be at least %d characters", minPasswordLength))
	}

	passwordHash, err := security.HashPassword(password, l.passwordCfg)
	if err != nil {
		return Identity{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var user *models.User
	err = l.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := users.NewRepository(tx)

		taken, err := repo.EmailTaken(ctx, email)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check user email")
		}
		if taken {
			return pkgerrors.New(pkgerrors.CodeAuthFailed, alreadyRegisteredMessage)
		}

		created, err := repo.Create(ctx, users.CreateUserDTO{
			Email:        email,
			PasswordHash: passwordHash,
		})
		if err != nil {
			if db.IsUniqueViolation(err, "email") {
				return pkgerrors.New(pkgerrors.CodeAuthFailed, alreadyRegisteredMessage)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
		}
		user = created
		return nil
	})
	if err != nil {
		return Identity{}, err
	}

	return l.issue(user, l.now())
}

// SignOut has nothing to revoke: local access tokens expire on their own.
func (l *Local) SignOut(context.Context, Identity) error {
	return nil
}

func (l *Local) issue(user *models.User, now time.Time) (Identity, error) {
	token, expiresAt, err := l.signer.AccessToken(now, l.tokenTTL, user.ID, user.Email)
	if err != nil {
		return Identity{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	refresh, err := auth.RandomToken()
	if err != nil {
		return Identity{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate refresh token")
	}
	return Identity{
		UserID:       user.ID.String(),
		Email:        user.Email,
		AccessToken:  token,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
	}, nil
}
