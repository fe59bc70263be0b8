package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/opentimer/internal/logger"
	"github.com/oshokin/opentimer/internal/repository/store"
	"github.com/oshokin/opentimer/internal/transport"
)

// Config holds the settings shared by the device daemon and the controller.
type Config struct {
	// Transport selects the byte stream carrying the protocol.
	Transport Transport `yaml:"transport"`
	// Store selects the backend persisting the device configuration.
	Store Store `yaml:"store"`
	// WatchdogTimeout is the time a declared frame has to arrive completely.
	WatchdogTimeout time.Duration `yaml:"watchdog_timeout"`
	// TickInterval is the schedule evaluation period.
	TickInterval time.Duration `yaml:"tick_interval"`
	// Timeout bounds one controller exchange and health calls.
	Timeout time.Duration `yaml:"timeout"`
	// Temperature is the reading reported by the software sensor.
	Temperature float64 `yaml:"temperature"`
	// OutputPath is an optional GPIO value file driven by the relay.
	OutputPath string `yaml:"output_path,omitempty"`
	// MetricsAddress enables the Prometheus endpoint when set.
	MetricsAddress string `yaml:"metrics_addr,omitempty"`
	// HealthAddress enables the gRPC health endpoint when set.
	HealthAddress string `yaml:"health_addr,omitempty"`
	// LogLevel is the minimum level written to the log.
	LogLevel string `yaml:"log_level"`
}

// Transport describes the protocol byte stream.
type Transport struct {
	// Type is "serial" or "tcp".
	Type string `yaml:"type"`
	// Device is the serial device path.
	Device string `yaml:"device,omitempty"`
	// BaudRate of the serial device.
	BaudRate int `yaml:"baud_rate,omitempty"`
	// Address is the TCP address the device listens on and the controller dials.
	Address string `yaml:"address,omitempty"`
}

// Store describes the persistence backend.
type Store struct {
	// Driver is one of memory, file, badger or sqlite.
	Driver string `yaml:"driver"`
	// Path is the file or directory of the backend.
	Path string `yaml:"path,omitempty"`
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "opentimer-settings.yaml"

	// DefaultStoreFilename is the default file of the file store.
	DefaultStoreFilename = "opentimer-store.yaml"

	// DefaultDevice is the default serial device, a bound Bluetooth RFCOMM channel.
	DefaultDevice = "/dev/rfcomm0"

	// DefaultBaudRate is the default serial speed.
	DefaultBaudRate = 115200

	// DefaultWatchdogTimeout is the default frame completion deadline.
	DefaultWatchdogTimeout = 2 * time.Second

	// DefaultTickInterval is the default schedule evaluation period.
	DefaultTickInterval = time.Second

	// DefaultTimeout is the default duration for controller exchanges.
	DefaultTimeout = 5 * time.Second

	// DefaultLogLevel is used when no level is configured.
	DefaultLogLevel = "info"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errUnknownTransport is returned for an unsupported transport type.
	errUnknownTransport = errors.New("transport type must be serial or tcp")
	// errAddressRequired is returned when the TCP transport has no address.
	errAddressRequired = errors.New("tcp transport requires an address")
	// errUnknownDriver is returned for an unsupported store driver.
	errUnknownDriver = errors.New("store driver must be memory, file, badger or sqlite")
	// errUnknownLogLevel is returned for an unparsable log level.
	errUnknownLogLevel = errors.New("unknown log level")
)

// Default returns a configuration with every default filled in.
func Default() *Config {
	cfg := new(Config)

	// Defaults always validate.
	_ = Validate(cfg)

	return cfg
}

// Load reads configuration from the provided path and validates it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadOrDefault loads path, falling back to defaults when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}

	return cfg, err
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate fills in defaults and checks the settings.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if err := validateTransport(&settings.Transport); err != nil {
		return err
	}

	if err := validateStore(&settings.Store); err != nil {
		return err
	}

	if settings.WatchdogTimeout <= 0 {
		settings.WatchdogTimeout = DefaultWatchdogTimeout
	}

	if settings.TickInterval <= 0 {
		settings.TickInterval = DefaultTickInterval
	}

	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	if settings.LogLevel == "" {
		settings.LogLevel = DefaultLogLevel
	}

	if _, ok := logger.ParseLogLevel(settings.LogLevel); !ok {
		return fmt.Errorf("%q: %w", settings.LogLevel, errUnknownLogLevel)
	}

	for name, address := range map[string]string{
		"metrics": settings.MetricsAddress,
		"health":  settings.HealthAddress,
	} {
		if address == "" {
			continue
		}

		if _, _, err := net.SplitHostPort(address); err != nil {
			return fmt.Errorf("invalid %s address: %w", name, err)
		}
	}

	return nil
}

// TransportOptions converts the transport section for the transport package.
func (c *Config) TransportOptions() transport.Options {
	return transport.Options{
		Kind:     c.Transport.Type,
		Device:   c.Transport.Device,
		BaudRate: c.Transport.BaudRate,
		Address:  c.Transport.Address,
	}
}

// validateTransport fills in transport defaults.
func validateTransport(t *Transport) error {
	if t.Type == "" {
		t.Type = transport.KindSerial
	}

	switch t.Type {
	case transport.KindSerial:
		if t.Device == "" {
			t.Device = DefaultDevice
		}

		if t.BaudRate <= 0 {
			t.BaudRate = DefaultBaudRate
		}
	case transport.KindTCP:
		if t.Address == "" {
			return errAddressRequired
		}

		if _, err := net.ResolveTCPAddr("tcp", t.Address); err != nil {
			return fmt.Errorf("invalid transport address: %w", err)
		}
	default:
		return fmt.Errorf("%q: %w", t.Type, errUnknownTransport)
	}

	return nil
}

// validateStore fills in store defaults.
func validateStore(s *Store) error {
	if s.Driver == "" {
		s.Driver = store.DriverFile
	}

	switch s.Driver {
	case store.DriverMemory, store.DriverBadger, store.DriverSQLite:
	case store.DriverFile:
		if s.Path == "" {
			s.Path = DefaultStoreFilename
		}
	default:
		return fmt.Errorf("%q: %w", s.Driver, errUnknownDriver)
	}

	return nil
}
