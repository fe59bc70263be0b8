package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/opentimer/internal/config"
	"github.com/oshokin/opentimer/internal/domain/timer"
	"github.com/oshokin/opentimer/internal/service/client"
	"github.com/oshokin/opentimer/internal/version"
)

var (
	// options collects the connection flags shared by every subcommand.
	options = new(client.Options)

	// rootCmd represents the base command of the controller.
	rootCmd = &cobra.Command{
		Use:   "opentimer-client",
		Short: "Control an OpenTimer appliance.",
		Long: `Reads and programs an OpenTimer appliance over its serial link or TCP.

The connection comes from the settings file and can be overridden with
--device or --address. Commands that change the device present the password
given with --password.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			// Setup graceful shutdown handling for every subcommand.
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			cmd.SetContext(ctx)
			cobra.OnFinalize(stop)
		},
	}
)

// Execute runs the opentimer-client CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)
	rootCmd.AddCommand(
		statusCmd,
		alarmsCmd,
		uploadCmd,
		armCmd,
		disarmCmd,
		syncTimeCmd,
		changePasswordCmd,
		healthCmd,
	)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&options.ConfigPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	flags.StringVarP(&options.Device, "device", "d", "", "serial device of the appliance")
	flags.StringVarP(&options.Address, "address", "a", "", "TCP address of the appliance")
	flags.StringVarP(&options.Password, "password", "p", timer.DefaultPassword, "device password")
}
