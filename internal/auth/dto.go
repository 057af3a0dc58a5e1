package auth

import "github.com/angelmondragon/storefront/pkg/identity"

// LoginRequest is the payload accepted by the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the payload accepted by the register endpoint.
type RegisterRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

// SessionView is the public shape of the current session. Tokens stay on
// the server.
type SessionView struct {
	Authenticated bool      `json:"authenticated"`
	User          *UserView `json:"user,omitempty"`
}

type UserView struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func NewSessionView(id identity.Identity, ok bool) SessionView {
	if !ok {
		return SessionView{}
	}
	return SessionView{
		Authenticated: true,
		User:          &UserView{ID: id.UserID, Email: id.Email},
	}
}
