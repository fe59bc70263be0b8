package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Namespace prefixes every record key so several programs can share a backend.
const Namespace = "OpentimerDB"

// Driver names accepted by Open.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverBadger = "badger"
	DriverSQLite = "sqlite"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrWriteFailed wraps every failure to persist a record.
	ErrWriteFailed = errors.New("write failed")
	// ErrUnknownDriver is returned by Open for an unsupported driver name.
	ErrUnknownDriver = errors.New("unknown store driver")
)

// Store defines record persistence operations.
type Store interface {
	// Get returns a copy of the record or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put replaces the record. Failures wrap ErrWriteFailed.
	Put(ctx context.Context, key string, value []byte) error
	// Close releases the backend.
	Close() error
}

// Open creates the store for the given driver and path.
func Open(ctx context.Context, driver, path string) (Store, error) { //nolint:ireturn // Factory over backends.
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverMemory, "":
		return NewMemoryStore(), nil
	case DriverFile:
		return NewFileStore(path), nil
	case DriverBadger:
		return OpenBadgerStore(ctx, path)
	case DriverSQLite:
		return OpenSQLiteStore(ctx, path)
	default:
		return nil, fmt.Errorf("%q: %w", driver, ErrUnknownDriver)
	}
}

// recordKey returns the namespaced key for a record.
func recordKey(key string) string {
	return Namespace + "/" + key
}

// writeFailed wraps err so callers can match ErrWriteFailed.
func writeFailed(key string, err error) error {
	return fmt.Errorf("put %s: %w: %w", key, ErrWriteFailed, err)
}
