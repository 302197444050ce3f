package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/genesoft/portal-backend/pkg/config"
	"github.com/genesoft/portal-backend/pkg/db"
	"github.com/genesoft/portal-backend/pkg/logger"
	"github.com/genesoft/portal-backend/pkg/migrate"
)

type options struct {
	cmd     string
	dir     string
	name    string
	version string
}

func main() {
	var opts options
	flag.StringVar(&opts.cmd, "cmd", "up", "up|down|status|version|create|validate")
	flag.StringVar(&opts.dir, "dir", "", "migrations directory (defaults to the migrations built into the binary; create uses "+migrate.DefaultDir+")")
	flag.StringVar(&opts.name, "name", "", "migration name for -cmd=create")
	flag.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	_ = godotenv.Load()

	logg := logger.New(logger.Options{ServiceName: "migrate"})
	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": opts.cmd,
	})

	lines, err := run(ctx, cfg, logg, opts)
	for _, line := range lines {
		fmt.Println(line)
	}
	if err != nil {
		logg.Error(ctx, "migrate failed", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger, opts options) (lines []string, err error) {
	switch opts.cmd {
	case "create":
		if opts.name == "" {
			return nil, errors.New("missing -name for create")
		}
		dir := opts.dir
		if dir == "" {
			dir = migrate.DefaultDir
		}
		path, err := migrate.CreateSQLMigration(dir, opts.name)
		if err != nil {
			return nil, err
		}
		return []string{"created " + path}, nil
	case "validate":
		source, err := migrate.Source(opts.dir)
		if err != nil {
			return nil, err
		}
		if err := migrate.ValidateFS(source); err != nil {
			return nil, err
		}
		return []string{"migrations valid"}, nil
	}

	if cfg.DB.Driver == config.DriverSQLite {
		return nil, errors.New("goose migrations target postgres; the sqlite fallback is auto-migrated by the api in dev")
	}

	source, err := migrate.Source(opts.dir)
	if err != nil {
		return nil, err
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		return nil, fmt.Errorf("sql database: %w", err)
	}

	logg.Info(ctx, "migrate ready")

	if opts.cmd == "version" {
		if opts.version == "" {
			return nil, errors.New("missing -version for version command")
		}
		return migrate.MigrateToVersion(ctx, sqlDB, source, opts.version)
	}
	return migrate.Run(ctx, sqlDB, source, opts.cmd)
}
