package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/next-alarm/internal/config"
	"github.com/oshokin/next-alarm/internal/service/sensor"
	"github.com/oshokin/next-alarm/internal/version"
)

var (
	// options collects the flag values.
	options = new(sensor.Options)

	// rootCmd represents the base command for reading the next alarm.
	rootCmd = &cobra.Command{
		Use:   "next-alarm-sensor [server-address]",
		Short: "Print the next alarm read over gRPC.",
		Long: `Reads the next alarm from next-alarm-server over gRPC and prints the state object as JSON.

With --watch the server is polled until interrupted and the state is printed
again whenever it changes. Server address can be provided as argument or
derived from grpc_addr in the configuration file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			if len(args) > 0 {
				options.ServerAddress = args[0]
			}

			options.Output = cmd.OutOrStdout()

			return sensor.Run(ctx, options)
		},
	}
)

// Execute runs the next-alarm-sensor CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&options.ConfigPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	flags.BoolVarP(&options.Watch, "watch", "w", false, "keep polling and print every change")
	flags.DurationVarP(&options.PollInterval, "interval", "i", sensor.DefaultPollInterval, "polling interval in watch mode")
}
