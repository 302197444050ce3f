package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const versionLayout = "20060102150405"

var slugStripRe = regexp.MustCompile(`[^a-z0-9]+`)

// now is swapped in tests.
var now = func() time.Time { return time.Now().UTC() }

// CreateSQLMigration writes an empty goose migration named
// <dir>/<version>_<slug>.sql and returns its path. The version is the current
// UTC time, bumped past the newest existing migration so two files created in
// the same second never collide.
func CreateSQLMigration(dir, name string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	slug := migrationSlug(name)
	if slug == "" {
		return "", fmt.Errorf("name %q has no usable characters", name)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}

	version, err := nextVersion(dir)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s.sql", version, slug))
	body := fmt.Sprintf("%s\n-- %s\n\n%s\n-- undo %s\n", upMarker, slug, downMarker, slug)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create migration %q: %w", path, err)
	}
	if _, err := f.WriteString(body); err != nil {
		f.Close()
		return "", fmt.Errorf("write migration %q: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close migration %q: %w", path, err)
	}
	return path, nil
}

func migrationSlug(name string) string {
	slug := slugStripRe.ReplaceAllString(strings.ToLower(name), "_")
	return strings.Trim(slug, "_")
}

func nextVersion(dir string) (string, error) {
	candidate := now()
	files, err := listMigrations(os.DirFS(dir))
	if err != nil {
		return "", err
	}
	if len(files) > 0 {
		latest, err := time.Parse(versionLayout, files[len(files)-1].version)
		if err != nil {
			return "", fmt.Errorf("parse version of %q: %w", files[len(files)-1].name, err)
		}
		if !candidate.After(latest) {
			candidate = latest.Add(time.Second)
		}
	}
	return candidate.Format(versionLayout), nil
}
