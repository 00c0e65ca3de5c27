// Package database provides connection setup for MariaDB and Redis.
// This file validates migration SQL files to catch schema mismatches early.
package database

import (
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"testing"
)

// migrationsDir returns the absolute path to db/migrations/ from the project root.
func migrationsDir(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine test file path")
	}
	// thisFile is internal/database/migrate_test.go, project root is two dirs up.
	projectRoot := filepath.Join(filepath.Dir(thisFile), "..", "..")
	dir := filepath.Join(projectRoot, "db", "migrations")
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("migrations directory not found at %s: %v", dir, err)
	}
	return dir
}

// TestMigrations_UpDownPairs ensures every .up.sql has a matching .down.sql.
func TestMigrations_UpDownPairs(t *testing.T) {
	dir := migrationsDir(t)
	upFiles, err := filepath.Glob(filepath.Join(dir, "*.up.sql"))
	if err != nil {
		t.Fatalf("globbing up files: %v", err)
	}
	if len(upFiles) == 0 {
		t.Fatal("no migration files found")
	}

	for _, up := range upFiles {
		down := strings.Replace(up, ".up.sql", ".down.sql", 1)
		if _, err := os.Stat(down); err != nil {
			t.Errorf("missing down migration for %s", filepath.Base(up))
		}
	}
}

// TestMigrations_SingleStatement ensures each migration file holds exactly
// one statement. The mysql migration driver sends a file as one Exec, so a
// second statement in the same file fails at runtime with Error 1064.
func TestMigrations_SingleStatement(t *testing.T) {
	dir := migrationsDir(t)
	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		t.Fatalf("globbing migration files: %v", err)
	}

	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("reading %s: %v", f, err)
		}
		// Count statement terminators outside string literals. Migration
		// SQL here only uses single-quoted strings, so stripping those is
		// enough.
		content := regexp.MustCompile(`'[^']*'`).ReplaceAllString(string(data), "''")
		if n := strings.Count(content, ";"); n > 1 {
			t.Errorf("%s contains %d statements; split into separate migrations",
				filepath.Base(f), n)
		}
	}
}

// TestMigrations_SeedCategoryIDs validates that seeded document category ids
// are well-formed UUIDs. The templates table references these ids with a
// foreign key, so a malformed seed id breaks template creation silently.
func TestMigrations_SeedCategoryIDs(t *testing.T) {
	dir := migrationsDir(t)
	files, err := filepath.Glob(filepath.Join(dir, "*.up.sql"))
	if err != nil {
		t.Fatalf("globbing migration files: %v", err)
	}

	uuidPattern := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	rowPattern := regexp.MustCompile(`\('([^']*)',\s*'([^']*)'`)

	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("reading %s: %v", f, err)
		}
		content := string(data)
		if !strings.Contains(content, "INSERT INTO document_categories") {
			continue
		}

		rows := rowPattern.FindAllStringSubmatch(content, -1)
		if len(rows) == 0 {
			t.Errorf("%s: seed insert found but no value rows parsed", filepath.Base(f))
		}
		for _, row := range rows {
			id, name := row[1], row[2]
			if !uuidPattern.MatchString(id) {
				t.Errorf("%s: seed category id %q is not a UUID", filepath.Base(f), id)
			}
			if strings.TrimSpace(name) == "" {
				t.Errorf("%s: seed category %q has an empty name", filepath.Base(f), id)
			}
		}
	}
}

// TestMigrations_TokenTablesHashColumns ensures the confirmation and reset
// token tables store hashes, never raw tokens. The auth service looks tokens
// up by their SHA-256 hash; a column rename here would break login flows.
func TestMigrations_TokenTablesHashColumns(t *testing.T) {
	dir := migrationsDir(t)
	files, err := filepath.Glob(filepath.Join(dir, "*.up.sql"))
	if err != nil {
		t.Fatalf("globbing migration files: %v", err)
	}

	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("reading %s: %v", f, err)
		}
		content := string(data)
		if !strings.Contains(content, "_tokens") || !strings.Contains(content, "CREATE TABLE") {
			continue
		}
		if !strings.Contains(content, "token_hash") {
			t.Errorf("%s: token table must store token_hash, not the raw token", filepath.Base(f))
		}
	}
}
