package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/opentimer/internal/service/client"
)

var (
	// statusCmd prints the device state, clock and program metadata.
	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show the device state, clock and program.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return client.ShowStatus(cmd.Context(), options)
		},
	}

	// alarmsCmd prints the stored alarms.
	alarmsCmd = &cobra.Command{
		Use:   "alarms",
		Short: "List the stored alarms in matching order.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return client.ShowAlarms(cmd.Context(), options)
		},
	}

	// uploadCmd replaces the device program.
	uploadCmd = &cobra.Command{
		Use:   "upload <program.yaml>",
		Short: "Upload a program file.",
		Long: `Replaces the alarms, program type, description and author of the device
with the contents of a YAML program file:

  description: Garden watering
  author: alice          # defaults to user@host
  program_type: countdown  # countdown | toggle
  alarms:
    - time: "06:30"
      duration: 15
      days: [mon, wed, fri]  # every day when omitted
      enabled: true`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return client.Upload(cmd.Context(), options, args[0])
		},
	}

	// armCmd enables alarm evaluation.
	armCmd = &cobra.Command{
		Use:   "arm",
		Short: "Arm the device so alarms fire.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return client.SetArmed(cmd.Context(), options, true)
		},
	}

	// disarmCmd disables alarm evaluation.
	disarmCmd = &cobra.Command{
		Use:   "disarm",
		Short: "Disarm the device.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return client.SetArmed(cmd.Context(), options, false)
		},
	}

	// syncTimeCmd copies the local time to the device clock.
	syncTimeCmd = &cobra.Command{
		Use:   "sync-time",
		Short: "Set the device clock to the local time.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return client.SyncTime(cmd.Context(), options)
		},
	}

	// changePasswordCmd replaces the device password.
	changePasswordCmd = &cobra.Command{
		Use:   "change-password <new-password>",
		Short: "Replace the device password.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return client.ChangePassword(cmd.Context(), options, args[0])
		},
	}

	// healthCmd queries the gRPC health endpoint of the daemon.
	healthCmd = &cobra.Command{
		Use:   "health [address]",
		Short: "Query the health endpoint of the device daemon.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				options.HealthAddress = args[0]
			}

			return client.CheckHealth(cmd.Context(), options)
		},
	}
)
