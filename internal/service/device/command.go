package device

import (
	"context"
	"fmt"

	"github.com/oshokin/opentimer/internal/config"
	"github.com/oshokin/opentimer/internal/logger"
	"github.com/oshokin/opentimer/internal/repository/settings"
	"github.com/oshokin/opentimer/internal/repository/store"
	"github.com/oshokin/opentimer/internal/version"
)

// Options controls the opentimer-device process.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// StoreDriver overrides the configured store driver.
	StoreDriver string
	// StorePath overrides the configured store path.
	StorePath string
	// ListenAddress switches the transport to TCP on this address.
	ListenAddress string
}

// Run starts the appliance and blocks until ctx is canceled or a server fails.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "opentimer-device")

	cfgFile, err := loadSettings(opts)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Starting device", "version", version.Full(), "transport", cfgFile.Transport.Type)

	st, err := store.Open(ctx, cfgFile.Store.Driver, cfgFile.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	defer func() {
		if err := st.Close(); err != nil {
			logger.WarnKV(ctx, "Failed to close store", "error", err)
		}
	}()

	logger.InfoKV(ctx, "Store opened", "driver", cfgFile.Store.Driver, "path", cfgFile.Store.Path)

	d, err := New(ctx, cfgFile, st)
	if err != nil {
		return err
	}

	return d.Run(ctx)
}

// FactoryReset overwrites every stored field group with factory defaults.
func FactoryReset(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "factory-reset")

	cfgFile, err := loadSettings(opts)
	if err != nil {
		return err
	}

	st, err := store.Open(ctx, cfgFile.Store.Driver, cfgFile.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	defer func() {
		if err := st.Close(); err != nil {
			logger.WarnKV(ctx, "Failed to close store", "error", err)
		}
	}()

	if err = settings.NewRepository(st).Provision(ctx, FactoryDefaults()); err != nil {
		return fmt.Errorf("provision defaults: %w", err)
	}

	logger.InfoKV(ctx, "Factory defaults written", "driver", cfgFile.Store.Driver, "path", cfgFile.Store.Path)

	return nil
}

// loadSettings reads the settings file and applies command line overrides.
func loadSettings(opts *Options) (*config.Config, error) {
	cfgFile, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	if opts.StoreDriver != "" && opts.StoreDriver != cfgFile.Store.Driver {
		// The configured path belongs to the other driver.
		cfgFile.Store = config.Store{Driver: opts.StoreDriver}
	}

	if opts.StorePath != "" {
		cfgFile.Store.Path = opts.StorePath
	}

	if opts.ListenAddress != "" {
		cfgFile.Transport = config.Transport{Type: "tcp", Address: opts.ListenAddress}
	}

	if err = config.Validate(cfgFile); err != nil {
		return nil, fmt.Errorf("validate settings: %w", err)
	}

	logger.SetLevelString(cfgFile.LogLevel)

	return cfgFile, nil
}
