package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
)

// DefaultDir is where new migrations are written in a checkout.
const DefaultDir = "pkg/migrate/migrations"

//go:embed migrations/*.sql
var embedded embed.FS

// Source returns the migrations to run: the copy compiled into the binary
// when dir is empty, otherwise the files under dir.
func Source(dir string) (fs.FS, error) {
	if dir == "" {
		return fs.Sub(embedded, "migrations")
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("migrations dir %q: %w", dir, err)
	}
	return os.DirFS(dir), nil
}

// The migrations create roles, policies and triggers, so they only target postgres.
func newProvider(db *sql.DB, fsys fs.FS) (*goose.Provider, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	if fsys == nil {
		return nil, fmt.Errorf("migration source is required")
	}
	provider, err := goose.NewProvider(database.DialectPostgres, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	return provider, nil
}

// Run executes up, down or status and returns one line per migration touched.
func Run(ctx context.Context, db *sql.DB, fsys fs.FS, command string) ([]string, error) {
	provider, err := newProvider(db, fsys)
	if err != nil {
		return nil, err
	}

	switch command {
	case "up":
		results, err := provider.Up(ctx)
		if err != nil {
			return describeResults(results), fmt.Errorf("goose up: %w", err)
		}
		return describeResults(results), nil
	case "down":
		result, err := provider.Down(ctx)
		if err != nil {
			return nil, fmt.Errorf("goose down: %w", err)
		}
		return describeResults([]*goose.MigrationResult{result}), nil
	case "status":
		statuses, err := provider.Status(ctx)
		if err != nil {
			return nil, fmt.Errorf("goose status: %w", err)
		}
		lines := make([]string, 0, len(statuses))
		for _, st := range statuses {
			lines = append(lines, fmt.Sprintf("%d %s %s", st.Source.Version, st.State, st.Source.Path))
		}
		return lines, nil
	default:
		return nil, fmt.Errorf("unknown migrate command %q", command)
	}
}

// MigrateToVersion moves the schema up or down to targetVersion.
func MigrateToVersion(ctx context.Context, db *sql.DB, fsys fs.FS, targetVersion string) ([]string, error) {
	if targetVersion == "" {
		return nil, fmt.Errorf("targetVersion is required")
	}
	target, err := strconv.ParseInt(targetVersion, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", targetVersion, err)
	}

	provider, err := newProvider(db, fsys)
	if err != nil {
		return nil, err
	}
	current, err := provider.GetDBVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("get db version: %w", err)
	}

	var results []*goose.MigrationResult
	switch {
	case current == target:
		return nil, nil
	case current < target:
		results, err = provider.UpTo(ctx, target)
	default:
		results, err = provider.DownTo(ctx, target)
	}
	if err != nil {
		return describeResults(results), fmt.Errorf("goose migrate to %d: %w", target, err)
	}
	return describeResults(results), nil
}

func describeResults(results []*goose.MigrationResult) []string {
	lines := make([]string, 0, len(results))
	for _, res := range results {
		if res == nil || res.Source == nil {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s %d %s (%s)", res.Direction, res.Source.Version, res.Source.Path, res.Duration))
	}
	return lines
}
