package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront/api/controllers"
	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/api/routes"
	"github.com/angelmondragon/storefront/internal/auth"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/pkg/auth/session"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/db"
	"github.com/angelmondragon/storefront/pkg/identity"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/migrate"
	"github.com/angelmondragon/storefront/pkg/redis"
	"github.com/angelmondragon/storefront/pkg/storage"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var closers []func() error

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		closers = append(closers, redisClient.Close)
	}

	var dbClient *db.Client
	if cfg.Storage.Driver == config.StorageDriverSQL || cfg.Identity.Driver == config.IdentityDriverLocal {
		dbClient, err = db.New(ctx, cfg.DB, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap database", err)
			os.Exit(1)
		}
		closers = append(closers, dbClient.Close)

		if err := migrate.MaybeAutoRun(ctx, cfg, logg, dbClient); err != nil {
			logg.Error(ctx, "failed to run migrations", err)
			os.Exit(1)
		}
	}

	store, err := storage.New(storage.Driver(cfg.Storage.Driver),
		storage.WithRedis(redisClient),
		storage.WithDB(dbClient),
		storage.WithTTL(cfg.Storage.TTL),
	)
	if err != nil {
		logg.Error(ctx, "failed to create session storage", err)
		os.Exit(1)
	}
	closers = append(closers, store.Close)

	provider, err := identity.New(cfg, dbClient)
	if err != nil {
		logg.Error(ctx, "failed to create identity provider", err)
		os.Exit(1)
	}

	sessionManager, err := session.NewManager(cfg.Session)
	if err != nil {
		logg.Error(ctx, "failed to create session manager", err)
		os.Exit(1)
	}

	cat, err := catalog.Load()
	if err != nil {
		logg.Error(ctx, "failed to load catalog", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	rateLimiter := middleware.NewSessionRateLimiter(cfg.RateLimit, logg)
	defer rateLimiter.Stop()

	var authLimiter middleware.FixedWindowLimiter
	if redisClient != nil {
		authLimiter = redisClient
	} else {
		logg.Warn(ctx, "redis not configured, auth rate limiting disabled")
	}

	readiness := map[string]controllers.Pinger{"storage": store}
	if redisClient != nil {
		readiness["redis"] = redisClient
	}
	if dbClient != nil {
		readiness["database"] = dbClient
	}

	carts := cart.NewRegistry(store, logg, metrics.NewCartMetrics(registry))
	sessions := auth.NewRegistry(provider, store, logg, metrics.NewAuthMetrics(registry))
	go carts.Sweep(ctx, cfg.Session.IdleTTL)
	go sessions.Sweep(ctx, cfg.Session.IdleTTL)

	handler := routes.NewRouter(
		cfg,
		logg,
		sessionManager,
		rateLimiter,
		authLimiter,
		metrics.NewHTTPMetrics(registry),
		registry,
		readiness,
		cat,
		carts,
		sessions,
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	serverCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"storage":  cfg.Storage.Driver,
		"identity": provider.Name(),
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(serverCtx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logg.Error(serverCtx, "api server stopped unexpectedly", err)
			shutdown(serverCtx, logg, closers)
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	logg.Info(serverCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(serverCtx, "graceful shutdown failed", err)
	}
	shutdown(serverCtx, logg, closers)
}

// shutdown closes resources in reverse order of creation.
func shutdown(ctx context.Context, logg *logger.Logger, closers []func() error) {
	var err error
	for i := len(closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, closers[i]())
	}
	if err != nil {
		logg.Error(ctx, "error releasing resources", err)
	}
}
