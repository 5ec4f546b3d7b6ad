// Package store is the SQLite repository behind the tracking engine:
// products keyed by content hash, append-only price observations, and the
// watch/view signal tables the scheduler reads.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hazyhaar/pricewatch/idgen"
)

// Store wraps a *sql.DB with repository operations. All operations are
// idempotent or safely retryable; one product's persistence failure never
// blocks another's.
type Store struct {
	DB    *sql.DB
	NewID idgen.Generator
}

// NewStore creates a Store over an existing database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{DB: db, NewID: idgen.New}
}

// Open opens (creating parent directories) an SQLite database at path with
// production pragmas applied, runs the schema, and returns a Store.
// The caller must blank-import modernc.org/sqlite.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("store: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	if path == ":memory:" {
		// Every pooled connection to ":memory:" is its own database;
		// pin the pool to one so the schema survives.
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: %s: %w", p, err)
		}
	}

	if err := ApplySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: schema: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}

	return NewStore(db), nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.DB.Close()
}
