package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/db"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// MaybeAutoRun applies pending migrations at startup when the auto-migrate
// flag is on. SQLite only backs local runs, so it is always migrated.
func MaybeAutoRun(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.FeatureFlags.AutoMigrate && !cfg.DB.IsSQLite() {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	m, err := New(sqlDB, db.Dialect(cfg.DB), logg)
	if err != nil {
		return err
	}

	if err := m.Up(ctx); err != nil {
		return err
	}
	version, err := m.Version(ctx)
	if err != nil {
		return fmt.Errorf("read db version: %w", err)
	}
	logg.Info(logg.WithField(ctx, "schema_version", version), "migrations.up_to_date")
	return nil
}
