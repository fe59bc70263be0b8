package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/opentimer/internal/config"
	"github.com/oshokin/opentimer/internal/service/device"
	"github.com/oshokin/opentimer/internal/version"
)

var (
	// options collects the flags shared by every subcommand.
	options = new(device.Options)

	// rootCmd represents the base command for running the appliance.
	rootCmd = &cobra.Command{
		Use:   "opentimer-device",
		Short: "Run the OpenTimer appliance.",
		Long: `Runs the programmable timer appliance.

The device listens for controller frames on a serial port (a bound Bluetooth
RFCOMM channel by default) or on a TCP address, keeps its program in the
configured store and switches the output according to the stored alarms.
Missing settings files fall back to defaults; an empty store is provisioned
with the factory password.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return device.Run(ctx, options)
		},
	}

	// factoryResetCmd overwrites the stored program with factory defaults.
	factoryResetCmd = &cobra.Command{
		Use:   "factory-reset",
		Short: "Restore the factory password and clear the program.",
		Long: `Writes the factory defaults to the configured store: the default password,
no alarms, empty description and author, countdown mode and disarmed state.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return device.FactoryReset(cmd.Context(), options)
		},
	}
)

// Execute runs the opentimer-device CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)
	rootCmd.AddCommand(factoryResetCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&options.ConfigPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	flags.StringVar(&options.StoreDriver, "store-driver", "", "store driver: memory, file, badger or sqlite")
	flags.StringVarP(&options.StorePath, "store-path", "s", "", "path of the store file or directory")
	flags.StringVarP(&options.ListenAddress, "listen", "l", "", "listen for controllers on this TCP address instead")
}
