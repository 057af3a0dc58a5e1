package auth

import (
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

// AuthError reports a failed login, register or logout. Message is safe to
// show to the user.
type AuthError struct {
	Op      string
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	return e.Op + ": " + e.Message
}

// Unwrap exposes the typed provider error so responses map it to a status.
func (e *AuthError) Unwrap() error {
	return e.Err
}

func newAuthError(op string, err error) *AuthError {
	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeAuthFailed, err, err.Error())
	}
	return &AuthError{Op: op, Message: typed.Message(), Err: typed}
}
