package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/oshokin/opentimer/internal/logger"
)

// BadgerStore persists records in a Badger key-value directory.
type BadgerStore struct {
	// db is the open Badger database.
	db *badger.DB
	// path is the database directory, empty for in-memory databases.
	path string
}

// OpenBadgerStore opens (or creates) a Badger database in path.
// An empty path opens an in-memory database.
func OpenBadgerStore(ctx context.Context, path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).
		WithSyncWrites(true).
		WithLogger(newBadgerLogAdapter(ctx))

	if path == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}

	logger.InfoKV(ctx, "Badger store opened", "path", path)

	return &BadgerStore{
		db:   db,
		path: path,
	}, nil
}

// Get returns a copy of the record value.
func (s *BadgerStore) Get(_ context.Context, key string) ([]byte, error) {
	var value []byte

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(recordKey(key)))
		if err != nil {
			return err
		}

		value, err = item.ValueCopy(nil)

		return err
	})

	switch {
	case err == nil:
		return value, nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
}

// Put writes the record in its own transaction.
func (s *BadgerStore) Put(_ context.Context, key string, value []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(recordKey(key)), append([]byte{}, value...))
	})
	if err != nil {
		return writeFailed(key, err)
	}

	return nil
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	if s.db == nil {
		return nil
	}

	return s.db.Close()
}

// badgerLogAdapter forwards Badger's internal logging to zap.
// Informational chatter is demoted to debug.
type badgerLogAdapter struct {
	// log is the named logger receiving Badger messages.
	log *zap.SugaredLogger
}

// newBadgerLogAdapter builds an adapter from the logger carried by ctx.
func newBadgerLogAdapter(ctx context.Context) *badgerLogAdapter {
	base := logger.FromContext(ctx).Desugar().
		Named("badger").
		WithOptions(logger.AtLeast(zapcore.WarnLevel))

	return &badgerLogAdapter{log: base.Sugar()}
}

// Errorf implements badger.Logger.
func (l *badgerLogAdapter) Errorf(format string, args ...any) {
	l.log.Errorf(format, args...)
}

// Warningf implements badger.Logger.
func (l *badgerLogAdapter) Warningf(format string, args ...any) {
	l.log.Warnf(format, args...)
}

// Infof implements badger.Logger.
func (l *badgerLogAdapter) Infof(format string, args ...any) {
	l.log.Debugf(format, args...)
}

// Debugf implements badger.Logger.
func (l *badgerLogAdapter) Debugf(format string, args ...any) {
	l.log.Debugf(format, args...)
}
