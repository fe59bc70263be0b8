package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// openAll returns one store per backend, each rooted in its own temporary directory.
func openAll(t *testing.T) map[string]Store {
	t.Helper()

	ctx := context.Background()
	dir := t.TempDir()

	stores := make(map[string]Store)

	for driver, path := range map[string]string{
		DriverMemory: "",
		DriverFile:   filepath.Join(dir, "store.yaml"),
		DriverBadger: filepath.Join(dir, "badger"),
		DriverSQLite: filepath.Join(dir, "store.db"),
	} {
		s, err := Open(ctx, driver, path)
		require.NoError(t, err, driver)

		t.Cleanup(func() {
			_ = s.Close()
		})

		stores[driver] = s
	}

	return stores
}

// TestStores_Roundtrip verifies Get/Put semantics shared by every backend.
func TestStores_Roundtrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	for driver, s := range openAll(t) {
		_, err := s.Get(ctx, "alarms")
		require.ErrorIs(t, err, ErrNotFound, driver)

		require.NoError(t, s.Put(ctx, "alarms", []byte{8, 30, 5, 0xC3}), driver)

		got, err := s.Get(ctx, "alarms")
		require.NoError(t, err, driver)
		require.Equal(t, []byte{8, 30, 5, 0xC3}, got, driver)

		// Overwrite with a shorter value.
		require.NoError(t, s.Put(ctx, "alarms", []byte{1}), driver)

		got, err = s.Get(ctx, "alarms")
		require.NoError(t, err, driver)
		require.Equal(t, []byte{1}, got, driver)

		// Empty records exist and have zero length.
		require.NoError(t, s.Put(ctx, "desc", nil), driver)

		got, err = s.Get(ctx, "desc")
		require.NoError(t, err, driver)
		require.Empty(t, got, driver)
	}
}

// TestMemoryStore_CopiesValues ensures callers cannot alias stored records.
func TestMemoryStore_CopiesValues(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryStore()

	value := []byte{1, 2, 3}
	require.NoError(t, s.Put(ctx, "k", value))

	value[0] = 9

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, got)

	got[1] = 9

	again, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, again)
}

// TestFileStore_PersistsAcrossInstances reopens the document with a new store.
func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.yaml")

	require.NoError(t, NewFileStore(path).Put(ctx, "state", []byte{1, 0, 0, 0}))

	got, err := NewFileStore(path).Get(ctx, "state")
	require.NoError(t, err)
	require.Equal(t, []byte{1, 0, 0, 0}, got)

	_, err = os.Stat(path)
	require.NoError(t, err)
}

// TestFileStore_WriteFailure reports ErrWriteFailed when the directory is missing.
func TestFileStore_WriteFailure(t *testing.T) {
	t.Parallel()

	s := NewFileStore(filepath.Join(t.TempDir(), "missing", "store.yaml"))

	err := s.Put(context.Background(), "state", []byte{1})
	require.ErrorIs(t, err, ErrWriteFailed)
}

// TestOpen_UnknownDriver rejects unsupported backends.
func TestOpen_UnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), "eeprom", "")
	require.ErrorIs(t, err, ErrUnknownDriver)
}
