package controllers

import (
	"net/http"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/internal/profile"
	"github.com/angelmondragon/storefront/pkg/logger"
)

func ProfileFetch(reg SessionRegistry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := sessionFor(r, reg.Peek)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := profile.Build(session)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(r.Context(), w, view)
	}
}
