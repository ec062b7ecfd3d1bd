package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/next-alarm/internal/config"
	"github.com/oshokin/next-alarm/internal/service/server"
	"github.com/oshokin/next-alarm/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// grpcAddress overrides the gRPC listen address.
	grpcAddress string
	// stateFile path where the last delivery is persisted.
	stateFile string
	// logLevel overrides the configured log level.
	logLevel string

	// rootCmd represents the base command for running the server.
	rootCmd = &cobra.Command{
		Use:   "next-alarm-server [http-listen-address]",
		Short: "Receive alarm lists from the phone and expose the next alarm.",
		Long: `Starts the webhook the phone posts its alarm list to and keeps the next alarm up to date.

The next alarm is served as JSON on /api/state, over gRPC when grpc_addr is set,
as an iCalendar feed on /api/alarms.ics and as a Home Assistant MQTT sensor when
a broker is configured. Prometheus metrics are served on /metrics.
The last delivery is persisted to a JSON file for recovery across restarts.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			var httpAddress string
			if len(args) > 0 {
				httpAddress = args[0]
			}

			options := &server.Options{
				ConfigPath:  configPath,
				HTTPAddress: httpAddress,
				GRPCAddress: grpcAddress,
				StateFile:   stateFile,
				LogLevel:    logLevel,
			}

			return server.Run(ctx, options)
		},
	}
)

// Execute runs the next-alarm-server CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&grpcAddress, "grpc-addr", "g", "", "gRPC listen address, overrides the config")
	rootCmd.Flags().StringVarP(&stateFile, "state-file", "s", "", "path to persist the last delivery, overrides the config")
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "", "log level (debug, info, warn, error)")
}
