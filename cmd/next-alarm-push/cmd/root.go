package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/next-alarm/internal/config"
	"github.com/oshokin/next-alarm/internal/service/push"
	"github.com/oshokin/next-alarm/internal/version"
)

var (
	// configPath stores the path to the configuration YAML file.
	configPath string
	// webhookURL overrides the URL built from the configuration.
	webhookURL string

	// rootCmd represents the base command for delivering an alarm file.
	rootCmd = &cobra.Command{
		Use:   "next-alarm-push <alarm-file>",
		Short: "Deliver an alarm list to the webhook like the phone does.",
		Long: `Reads an alarm list from a YAML or JSON file in the webhook format and posts it
to the webhook of next-alarm-server. The whole list replaces the previous one.

Example file:

  timezone: Europe/Berlin
  alarms:
    - name: Work
      time: "06:45"
      days: [0, 1, 2, 3, 4]
      isEnabled: true`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &push.Options{
				ConfigPath: configPath,
				File:       args[0],
				URL:        webhookURL,
			}

			return push.Run(ctx, options)
		},
	}
)

// Execute runs the next-alarm-push CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&webhookURL, "url", "u", "", "webhook URL, overrides the one built from the config")
}
