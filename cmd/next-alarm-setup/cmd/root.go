package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/oshokin/next-alarm/internal/config"
	"github.com/oshokin/next-alarm/internal/service/setup"
	"github.com/oshokin/next-alarm/internal/version"
)

var (
	// options collects the flag values.
	options = new(setup.Options)

	// rootCmd represents the base command for setting up an installation.
	rootCmd = &cobra.Command{
		Use:   "next-alarm-setup",
		Short: "Create the webhook and show it as a QR code.",
		Long: `Creates the settings file with a random webhook id and prints the webhook URL
together with a QR code to scan from the phone app.

An existing webhook id is kept unless --force is given, so running setup again
only shows the QR code. The base URL is chosen by --url-type: the local URL for
phones on the home network, the public URL for phones on the internet.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			options.Output = cmd.OutOrStdout()

			return setup.Run(context.Background(), options)
		},
	}
)

// Execute runs the next-alarm-setup CLI and exits with non-zero status on error.
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
	flags.StringVarP(&options.URLType, "url-type", "t", "", "base URL in the QR code: local or public")
	flags.StringVar(&options.LocalURL, "local-url", "", "base URL reachable from the home network")
	flags.StringVar(&options.PublicURL, "public-url", "", "base URL reachable from the internet")
	flags.BoolVarP(&options.Force, "force", "f", false, "replace an existing webhook id")
	flags.StringVarP(&options.QRFile, "qr-file", "o", "", "write the QR code as PNG to this file")
	flags.BoolVar(&options.DataURI, "data-uri", false, "also print the QR code as a PNG data URI")
}
