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

// migrationFileRe matches <version>_<verb>_<subject>.sql.
var migrationFileRe = regexp.MustCompile(`^(\d{14})_([a-z]+)_([a-z0-9_]+)\.sql$`)

// migrationVerbs lists the leading words a migration name may start with.
var migrationVerbs = map[string]struct{}{
	"create":   {},
	"add":      {},
	"alter":    {},
	"drop":     {},
	"rename":   {},
	"backfill": {},
}

// ValidateDir checks every .sql file in dir: the filename must be
// <YYYYMMDDHHMMSS>_<verb>_<subject>.sql with a real timestamp and a known
// verb, versions must be unique, and the body must hold a goose Up section
// before its Down section with balanced statement blocks.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir %q: %w", dir, err)
	}

	seen := map[string]string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}

		version, err := checkMigrationName(name)
		if err != nil {
			return err
		}
		if prev, ok := seen[version]; ok {
			return fmt.Errorf("duplicate migration version %s in %q and %q", version, prev, name)
		}
		seen[version] = name

		body, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read file %q: %w", name, err)
		}
		if err := checkMigrationBody(name, string(body)); err != nil {
			return err
		}
	}
	return nil
}

func checkMigrationName(name string) (string, error) {
	m := migrationFileRe.FindStringSubmatch(name)
	if m == nil {
		return "", fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_<verb>_<subject>.sql)", name)
	}
	if _, err := time.Parse(versionLayout, m[1]); err != nil {
		return "", fmt.Errorf("migration %q has an invalid timestamp version", name)
	}
	if _, ok := migrationVerbs[m[2]]; !ok {
		return "", fmt.Errorf("migration %q must start with one of %s", name, verbList())
	}
	return m[1], nil
}

func checkMigrationBody(name, body string) error {
	up := strings.Index(body, "-- +goose Up")
	down := strings.Index(body, "-- +goose Down")
	switch {
	case up < 0:
		return fmt.Errorf("migration %q missing \"-- +goose Up\"", name)
	case down < 0:
		return fmt.Errorf("migration %q missing \"-- +goose Down\"", name)
	case down < up:
		return fmt.Errorf("migration %q declares Down before Up", name)
	}
	if begins, ends := strings.Count(body, "-- +goose StatementBegin"), strings.Count(body, "-- +goose StatementEnd"); begins != ends {
		return fmt.Errorf("migration %q has %d StatementBegin and %d StatementEnd markers", name, begins, ends)
	}
	return nil
}

func hasMigrationVerb(safeName string) bool {
	verb, _, ok := strings.Cut(safeName, "_")
	if !ok {
		return false
	}
	_, known := migrationVerbs[verb]
	return known
}

func verbList() string {
	return "create, add, alter, drop, rename, backfill"
}
