package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/storefront/api/controllers"
	cartcontrollers "github.com/angelmondragon/storefront/api/controllers/cart"
	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/pkg/auth/session"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
)

// NewRouter wires every HTTP route. authLimiter may be nil, which disables
// the per-IP and per-email auth throttling.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	sessionManager *session.Manager,
	rateLimiter *middleware.SessionRateLimiter,
	authLimiter middleware.FixedWindowLimiter,
	httpMetrics *metrics.HTTPMetrics,
	gatherer prometheus.Gatherer,
	readiness map[string]controllers.Pinger,
	cat *catalog.Catalog,
	carts cartcontrollers.Registry,
	sessions controllers.SessionRegistry,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		chimw.RealIP,
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler(gatherer))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(
			middleware.BrowserSession(sessionManager, logg),
			middleware.Notifications,
		)
		if rateLimiter != nil {
			r.Use(rateLimiter.Middleware)
		}

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/categories", controllers.CatalogCategories(cat))
			r.Get("/featured", controllers.CatalogFeatured(cat))
			r.Get("/products", controllers.CatalogProducts(cat, cfg.Catalog.MaxPrice, logg))
			r.Get("/products/{productId}", controllers.CatalogProduct(cat, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.Fetch(carts, logg))
			r.Delete("/", cartcontrollers.Clear(carts, logg))
			r.Post("/open", cartcontrollers.Open(carts, logg))
			r.Post("/close", cartcontrollers.Close(carts, logg))
			r.Post("/items", cartcontrollers.AddItem(carts, cat, logg))
			r.Get("/items/{productId}/quantity", cartcontrollers.Quantity(carts, logg))
			r.Post("/items/{productId}/decrease", cartcontrollers.Decrease(carts, logg))
			r.Delete("/items/{productId}", cartcontrollers.Remove(carts, logg))
		})

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(middleware.LoginPolicy(cfg.AuthRateLimit), authLimiter, logg)).
				Post("/login", controllers.AuthLogin(sessions, logg))
			r.With(middleware.AuthRateLimit(middleware.RegisterPolicy(cfg.AuthRateLimit), authLimiter, logg)).
				Post("/register", controllers.AuthRegister(sessions, logg))
			r.Post("/logout", controllers.AuthLogout(sessions, logg))
			r.Get("/session", controllers.AuthSession(sessions, logg))
		})

		r.Get("/profile", controllers.ProfileFetch(sessions, logg))
	})

	return r
}
