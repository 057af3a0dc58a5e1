// Package profile builds the account page view for a signed-in shopper.
package profile

import (
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/identity"
)

// View is the account page. Personal fields are not stored yet and are
// always empty; orders are out of scope for this service.
type View struct {
	Email     string  `json:"email"`
	UserID    string  `json:"user_id"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Phone     string  `json:"phone"`
	Orders    []Order `json:"orders"`
}

// Order is a placed order. The list is always empty.
type Order struct {
	ID string `json:"id"`
}

// CurrentIdentity is satisfied by the auth session.
type CurrentIdentity interface {
	Current() (identity.Identity, bool)
}

// Build returns the profile of the signed-in user, or UNAUTHORIZED.
func Build(session CurrentIdentity) (View, error) {
	if session == nil {
		return View{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to view your profile")
	}
	id, ok := session.Current()
	if !ok {
		return View{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to view your profile")
	}
	return View{
		Email:  id.Email,
		UserID: id.UserID,
		Orders: []Order{},
	}, nil
}
