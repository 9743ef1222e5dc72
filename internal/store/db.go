// Package store is the SQLite persistence layer: rides and their power
// samples, computed training metrics, the athlete profile, training programs
// with week plans and planned workouts, auth tokens, and sync state.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Sentinel errors for lookups that found nothing.
var (
	ErrNoAuth           = errors.New("no authentication stored")
	ErrNoProfile        = errors.New("no athlete profile stored")
	ErrActivityNotFound = errors.New("activity not found")
	ErrProgramNotFound  = errors.New("training program not found")
	ErrWeekPlanNotFound = errors.New("week plan not found")
)

// DB wraps the SQLite connection with the application's queries.
type DB struct {
	*sql.DB
}

// Open opens (and migrates) the database at ~/.cyclecoach/data.db, creating
// the file and its directory on first run.
func Open() (*DB, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting home directory: %w", err)
	}
	dbPath := filepath.Join(home, ".cyclecoach", "data.db")
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return &DB{DB: db}, nil
}
