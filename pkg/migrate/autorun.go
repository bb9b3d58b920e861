package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// ShouldAutoRun reports whether a binary may migrate on boot: auto-migrate
// must be on, and only dev or local SQLite qualify. Production always goes
// through cmd/migrate.
func ShouldAutoRun(cfg *config.Config) bool {
	if cfg == nil || !cfg.FeatureFlags.AutoMigrate {
		return false
	}
	return cfg.App.IsDev() || cfg.FeatureFlags.UseSQLite
}

// MaybeRunDev brings the schema up to the latest embedded version when
// ShouldAutoRun allows it.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !ShouldAutoRun(cfg) {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	dialect := client.Dialect()

	before, err := Version(ctx, sqlDB, dialect)
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if err := Run(ctx, sqlDB, dialect, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}
	after, err := Version(ctx, sqlDB, dialect)
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	logg.Info(logg.WithFields(ctx, map[string]any{
		"env":          cfg.App.Env,
		"driver":       dialect,
		"from_version": before,
		"to_version":   after,
	}), "migrations.auto_applied")
	return nil
}
