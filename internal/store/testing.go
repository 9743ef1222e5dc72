package store

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

// NewTestDB opens an in-memory database with migrations applied. Only
// intended for use in tests.
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("opening in-memory database: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enabling foreign keys: %v", err)
	}
	if err := migrate(sqlDB); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	return &DB{DB: sqlDB}
}
