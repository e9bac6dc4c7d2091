// Package store is Umbrasol's single persistent, embedded relational
// store: six logical tables (tasks, audit, knowledge, cache, habits,
// experience) in one SQLite file, behind one mutex-guarded connection.
//
// Grounded on original_source/core/omega_memory.py's OmegaMemory class —
// the original system's own engine choice, carried over table-for-table
// and query-for-query rather than invented.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// Store wraps a single *sql.DB. Writes are serialized behind mu; reads use
// the same handle without it — SQLite's own file locking is sufficient
// for the last-committed-visibility guarantee this system needs.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open creates (if needed) and opens the SQLite database at path, creating
// all six tables if they don't already exist.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	db.SetMaxOpenConns(1) // single connection; mu above serializes writes anyway

	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) init() error {
	const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	request TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	checkpoint TEXT,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS audit (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	task_id TEXT,
	tool TEXT,
	command TEXT NOT NULL,
	risk TEXT,
	result TEXT,
	timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS knowledge (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	category TEXT,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS cache (
	fingerprint TEXT PRIMARY KEY,
	tool TEXT NOT NULL,
	command TEXT NOT NULL,
	hit_count INTEGER NOT NULL DEFAULT 1,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS habits (
	context TEXT PRIMARY KEY,
	counts TEXT NOT NULL DEFAULT '{}',
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS experience (
	task_key TEXT PRIMARY KEY,
	lesson TEXT NOT NULL,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("store: init schema: %w", err)
	}
	return nil
}

// DB exposes the raw handle for sub-stores (memory.Cache/Habit/Experience)
// that need to run their own queries against the shared connection.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Lock/Unlock expose the write mutex for callers issuing multi-statement
// writes that must be atomic with respect to other Store writers.
func (s *Store) Lock()   { s.mu.Lock() }
func (s *Store) Unlock() { s.mu.Unlock() }

// Exec runs a write query behind the store's mutex.
func (s *Store) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.ExecContext(ctx, query, args...)
}

// Query runs a read query without taking the write mutex.
func (s *Store) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, query, args...)
}

// QueryRow runs a single-row read query without taking the write mutex.
func (s *Store) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, query, args...)
}
