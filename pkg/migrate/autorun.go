package migrate

import (
	"context"
	"fmt"

	"github.com/genesoft/portal-backend/pkg/config"
	"github.com/genesoft/portal-backend/pkg/db"
	"github.com/genesoft/portal-backend/pkg/db/models"
	"github.com/genesoft/portal-backend/pkg/logger"
)

// MaybeRunDev brings the schema up to date when the app runs in dev mode with
// auto-migrate enabled. Postgres gets the goose migrations; the sqlite
// fallback gets a gorm AutoMigrate of the models, since row level security
// and roles do not exist there.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	if cfg.DB.Driver == config.DriverSQLite {
		logg.Info(logg.WithField(ctx, "driver", cfg.DB.Driver), "auto-migrating sqlite schema")
		if err := client.DB().WithContext(ctx).AutoMigrate(models.All()...); err != nil {
			return fmt.Errorf("sqlite auto-migrate: %w", err)
		}
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	source, err := Source("")
	if err != nil {
		return err
	}

	ctx = logg.WithField(ctx, "env", cfg.App.Env)
	logg.Info(ctx, "running goose migrations (dev auto-run)")

	applied, err := Run(ctx, sqlDB, source, "up")
	if err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(logg.WithField(ctx, "applied", len(applied)), "goose migrations completed")
	return nil
}
