package users

import (
	"time"

	"github.com/angelmondragon/storefront/pkg/db/models"
	"github.com/google/uuid"
)

// Account is a user without credentials.
type Account struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// CreateUserDTO is a new account. PasswordHash must already be hashed.
type CreateUserDTO struct {
	Email        string
	PasswordHash string
}

func AccountFromModel(u *models.User) *Account {
	if u == nil {
		return nil
	}
	return &Account{
		ID:          u.ID,
		Email:       u.Email,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	return &models.User{
		ID:           uuid.New(),
		Email:        NormalizeEmail(c.Email),
		PasswordHash: c.PasswordHash,
	}
}
