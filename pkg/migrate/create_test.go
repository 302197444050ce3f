package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"
)

func TestCreateSQLMigrationSanitizesName(t *testing.T) {
	dir := t.TempDir()

	path, err := CreateSQLMigration(dir, "Add Ticket Assignee!")
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if !strings.HasSuffix(path, "_add_ticket_assignee.sql") {
		t.Fatalf("unexpected filename %q", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	if !strings.Contains(string(data), "-- +goose Up") || !strings.Contains(string(data), "-- +goose Down") {
		t.Fatalf("template missing goose markers: %s", data)
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("created migration should validate: %v", err)
	}
}

func TestCreateSQLMigrationRejectsEmptyName(t *testing.T) {
	if _, err := CreateSQLMigration(t.TempDir(), "!!!"); err == nil {
		t.Fatalf("expected error for name without usable characters")
	}
}

func TestValidateDirRejectsBadFiles(t *testing.T) {
	cases := map[string]string{
		"bad name":     "create_things.sql",
		"missing down": "20260101000000_create_things.sql",
	}
	for name, filename := range cases {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			body := "-- +goose Up\nSELECT 1;\n"
			if err := os.WriteFile(filepath.Join(dir, filename), []byte(body), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
			if err := ValidateDir(dir); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestValidateDirRejectsEmptyDir(t *testing.T) {
	if err := ValidateDir(t.TempDir()); err == nil {
		t.Fatalf("expected error for directory without migrations")
	}
}

func TestCreateSQLMigrationBumpsPastLatestVersion(t *testing.T) {
	fixed := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	restore := now
	now = func() time.Time { return fixed }
	t.Cleanup(func() { now = restore })

	dir := t.TempDir()
	first, err := CreateSQLMigration(dir, "first")
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := CreateSQLMigration(dir, "second")
	if err != nil {
		t.Fatalf("create second: %v", err)
	}

	if filepath.Base(first) != "20260105090000_first.sql" {
		t.Fatalf("unexpected first filename %q", filepath.Base(first))
	}
	if filepath.Base(second) != "20260105090001_second.sql" {
		t.Fatalf("unexpected second filename %q", filepath.Base(second))
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidateFSRejectsDownBeforeUp(t *testing.T) {
	fsys := fstest.MapFS{
		"20260101000000_swap.sql": {Data: []byte("-- +goose Down\nSELECT 1;\n-- +goose Up\nSELECT 1;\n")},
	}
	if err := ValidateFS(fsys); err == nil {
		t.Fatalf("expected ordering error")
	}
}

func TestEmbeddedMigrationsValidate(t *testing.T) {
	source, err := Source("")
	if err != nil {
		t.Fatalf("source: %v", err)
	}
	if err := ValidateFS(source); err != nil {
		t.Fatalf("embedded migrations: %v", err)
	}
}
