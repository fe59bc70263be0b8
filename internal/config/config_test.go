package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks defaults and format validations for Config.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Empty settings get every default.
	settings := new(Config)
	require.NoError(t, Validate(settings))
	require.Equal(t, "serial", settings.Transport.Type)
	require.Equal(t, DefaultDevice, settings.Transport.Device)
	require.Equal(t, DefaultBaudRate, settings.Transport.BaudRate)
	require.Equal(t, "file", settings.Store.Driver)
	require.Equal(t, DefaultStoreFilename, settings.Store.Path)
	require.Equal(t, DefaultWatchdogTimeout, settings.WatchdogTimeout)
	require.Equal(t, time.Second, settings.TickInterval)
	require.Equal(t, DefaultTimeout, settings.Timeout)
	require.Equal(t, "info", settings.LogLevel)

	// TCP without an address.
	settings = &Config{Transport: Transport{Type: "tcp"}}
	require.ErrorIs(t, Validate(settings), errAddressRequired)

	// Bad TCP address.
	settings = &Config{Transport: Transport{Type: "tcp", Address: "bad:address"}}
	require.Error(t, Validate(settings))

	// Unknown transport.
	settings = &Config{Transport: Transport{Type: "infrared"}}
	require.ErrorIs(t, Validate(settings), errUnknownTransport)

	// Unknown store driver.
	settings = &Config{Store: Store{Driver: "floppy"}}
	require.ErrorIs(t, Validate(settings), errUnknownDriver)

	// Unknown log level.
	settings = &Config{LogLevel: "chatty"}
	require.ErrorIs(t, Validate(settings), errUnknownLogLevel)

	// Malformed metrics address.
	settings = &Config{MetricsAddress: "9108"}
	require.Error(t, Validate(settings))

	// Nil settings.
	require.ErrorIs(t, Validate(nil), errConfigIsNotSet)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	settings := &Config{
		Transport:       Transport{Type: "tcp", Address: "127.0.0.1:7700"},
		Store:           Store{Driver: "badger", Path: filepath.Join(dir, "db")},
		WatchdogTimeout: 3 * time.Second,
		Temperature:     21.5,
		MetricsAddress:  ":9108",
		LogLevel:        "debug",
	}

	require.NoError(t, Save(path, settings))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, settings, loaded)

	// File exists with restricted permissions.
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(DefaultFilePermissions), info.Mode().Perm())

	require.Equal(t, "127.0.0.1:7700", loaded.TransportOptions().Address)
}

// TestLoadPartialFile fills in what the file leaves out.
func TestLoadPartialFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	contents := "transport:\n  type: tcp\n  address: 127.0.0.1:7700\nwatchdog_timeout: 500ms\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), DefaultFilePermissions))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 500*time.Millisecond, loaded.WatchdogTimeout)
	require.Equal(t, "file", loaded.Store.Driver)
}

// TestLoadOrDefault falls back only for a missing file.
func TestLoadOrDefault(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	cfg, err := LoadOrDefault(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("transport: ["), DefaultFilePermissions))

	_, err = LoadOrDefault(broken)
	require.Error(t, err)
}
