package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/genesoft/portal-backend/internal/identities"
	"github.com/genesoft/portal-backend/internal/maintenance"
	"github.com/genesoft/portal-backend/internal/profiles"
	"github.com/genesoft/portal-backend/pkg/config"
	"github.com/genesoft/portal-backend/pkg/db"
	"github.com/genesoft/portal-backend/pkg/logger"
	"github.com/genesoft/portal-backend/pkg/metrics"
	"github.com/genesoft/portal-backend/pkg/security"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: maintenance.SyncProfilesJobName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: maintenance.SyncProfilesJobName,
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithField(ctx, "env", cfg.App.Env)

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	hasher, err := security.NewHasher(cfg.Password)
	if err != nil {
		logg.Error(ctx, "failed to create password hasher", err)
		os.Exit(1)
	}
	provider, err := identities.NewProvider(dbClient, hasher)
	if err != nil {
		logg.Error(ctx, "failed to create identity provider", err)
		os.Exit(1)
	}
	profileService, err := profiles.NewService(dbClient)
	if err != nil {
		logg.Error(ctx, "failed to create profile service", err)
		os.Exit(1)
	}

	job, err := maintenance.NewSyncProfilesJob(maintenance.SyncProfilesParams{
		DB:         dbClient,
		Identities: provider,
		Profiles:   profileService,
		Metrics:    metrics.NewJobMetrics(prometheus.DefaultRegisterer),
		Logger:     logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create sync job", err)
		os.Exit(1)
	}

	logg.Info(ctx, "starting profile sync")
	if _, err := job.Run(ctx); err != nil {
		// Deferred closes do not run after os.Exit.
		_ = dbClient.Close()
		logg.Error(ctx, "profile sync finished with errors", err)
		os.Exit(1)
	}
}
