package middleware

import (
	"net/http"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/internal/notify"
	"github.com/angelmondragon/storefront/pkg/auth/session"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// BrowserSession resolves the session cookie, issuing a fresh one when the
// request carries none or an invalid one, and stores the id in the context.
func BrowserSession(manager *session.Manager, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			res, err := manager.Resolve(r)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "start session"))
				return
			}
			if res.Cookie != nil {
				http.SetCookie(w, res.Cookie)
			}

			ctx = WithSessionID(ctx, res.ID)
			if res.Cookie != nil {
				ctx = WithNewSession(ctx)
			}
			if logg != nil {
				ctx = logg.WithSessionID(ctx, res.ID)
				if res.Cookie != nil {
					logg.Debug(ctx, "session.started")
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Notifications gives each request its own toast buffer. Responses drain it
// into the envelope.
func Notifications(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := notify.WithBuffer(r.Context(), notify.NewBuffer())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
