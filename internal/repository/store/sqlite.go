package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	// Register the pure-Go SQLite driver.
	_ "modernc.org/sqlite"
)

// SQLiteStore persists records in a single SQLite table.
type SQLiteStore struct {
	// db is the SQLite handle.
	db *sql.DB
	// mu serializes writes, SQLite allows a single writer.
	mu sync.Mutex
}

// OpenSQLiteStore opens the database at path, use ":memory:" for a volatile database.
func OpenSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// A single connection keeps ":memory:" databases alive across calls.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err = s.initialize(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return s, nil
}

// initialize creates the records table.
func (s *SQLiteStore) initialize(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS records (
		key   TEXT PRIMARY KEY,
		value BLOB NOT NULL
	);`

	_, err := s.db.ExecContext(ctx, schema)

	return err
}

// Get reads the record value.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte

	err := s.db.QueryRowContext(ctx, "SELECT value FROM records WHERE key = ?", recordKey(key)).Scan(&value)

	switch {
	case err == nil:
		if value == nil {
			value = []byte{}
		}

		return value, nil
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("query record %s: %w", key, err)
	}
}

// Put upserts the record.
func (s *SQLiteStore) Put(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if value == nil {
		value = []byte{}
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO records (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		recordKey(key), value,
	)
	if err != nil {
		return writeFailed(key, err)
	}

	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
