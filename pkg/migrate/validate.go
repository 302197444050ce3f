package migrate

import (
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"sort"
	"strings"
)

const (
	upMarker   = "-- +goose Up"
	downMarker = "-- +goose Down"
)

var migrationFileRe = regexp.MustCompile(`^(\d{14})_([a-z0-9_]+)\.sql$`)

type migrationFile struct {
	version string
	name    string
}

// ValidateDir checks the migrations under dir. See ValidateFS.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	if err := ValidateFS(os.DirFS(dir)); err != nil {
		return fmt.Errorf("%s: %w", dir, err)
	}
	return nil
}

// ValidateFS requires at least one migration, YYYYMMDDHHMMSS_name.sql
// filenames with unique versions, and an Up section placed before the Down
// section in every file.
func ValidateFS(fsys fs.FS) error {
	files, err := listMigrations(fsys)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no migrations found")
	}

	for i, f := range files {
		if i > 0 && files[i-1].version == f.version {
			return fmt.Errorf("duplicate migration version %s in %q and %q", f.version, files[i-1].name, f.name)
		}

		b, err := fs.ReadFile(fsys, f.name)
		if err != nil {
			return fmt.Errorf("read %q: %w", f.name, err)
		}
		txt := string(b)
		up := strings.Index(txt, upMarker)
		down := strings.Index(txt, downMarker)
		switch {
		case up < 0:
			return fmt.Errorf("migration %q missing %q", f.name, upMarker)
		case down < 0:
			return fmt.Errorf("migration %q missing %q", f.name, downMarker)
		case down < up:
			return fmt.Errorf("migration %q has its Down section before Up", f.name)
		}
	}
	return nil
}

// listMigrations returns the .sql files at the root of fsys sorted by
// version. Any .sql file with a malformed name is an error.
func listMigrations(fsys fs.FS) ([]migrationFile, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	var files []migrationFile
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		m := migrationFileRe.FindStringSubmatch(e.Name())
		if m == nil {
			return nil, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", e.Name())
		}
		files = append(files, migrationFile{version: m[1], name: e.Name()})
	}
	sort.Slice(files, func(i, j int) bool {
		if files[i].version == files[j].version {
			return files[i].name < files[j].name
		}
		return files[i].version < files[j].version
	})
	return files, nil
}
