package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an account known to the local identity provider.
type User struct {
	ID           uuid.UUID  `gorm:"type:varchar(36);primaryKey"`
	Email        string     `gorm:"type:varchar(320);not null;uniqueIndex:idx_users_email"`
	PasswordHash string     `gorm:"column:password_hash;not null"`
	LastLoginAt  *time.Time `gorm:"column:last_login_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}
