package setup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/oshokin/next-alarm/internal/config"
	"github.com/oshokin/next-alarm/internal/logger"
	install "github.com/oshokin/next-alarm/internal/setup"
)

// Options configures the setup run. Empty fields keep the stored values.
type Options struct {
	// ConfigPath is the settings file to create or update.
	ConfigPath string
	// URLType selects the base URL encoded in the QR code.
	URLType string
	// LocalURL is the base URL reachable from the home network.
	LocalURL string
	// PublicURL is the base URL reachable from the internet.
	PublicURL string
	// Force replaces an existing webhook id.
	Force bool
	// QRFile is an optional path of a PNG QR code to write.
	QRFile string
	// DataURI also prints the QR code as a PNG data URI.
	DataURI bool
	// Output receives the URL and QR code, stdout when nil.
	Output io.Writer
}

// Run creates or updates the settings file and prints the webhook URL.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "next-alarm-setup")

	cfg, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	if opts.URLType != "" {
		cfg.URLType = opts.URLType
	}

	if opts.LocalURL != "" {
		cfg.LocalURL = opts.LocalURL
	}

	if opts.PublicURL != "" {
		cfg.PublicURL = opts.PublicURL
	}

	id, err := install.AssignWebhookID(cfg, opts.Force)

	switch {
	case err == nil:
		logger.InfoKV(ctx, "Generated webhook id", "webhook_id", id)
	case errors.Is(err, install.ErrWebhookExists):
		logger.Info(ctx, "Webhook already configured, keeping its id; pass --force to replace it")
	default:
		return err
	}

	url, err := install.WebhookURL(cfg.BaseURL(), id)
	if err != nil {
		return fmt.Errorf("%s url: %w", cfg.URLType, err)
	}

	if err = config.Save(opts.ConfigPath, cfg); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	return show(out, url, opts)
}

// show prints the webhook URL and its QR code renderings.
func show(out io.Writer, url string, opts *Options) error {
	code, err := install.QRTerminal(url)
	if err != nil {
		return err
	}

	if _, err = fmt.Fprintf(out, "Webhook URL: %s\n\n%s\n", url, code); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	if opts.DataURI {
		uri, err := install.QRDataURI(url)
		if err != nil {
			return err
		}

		if _, err = fmt.Fprintln(out, uri); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}

	if opts.QRFile != "" {
		if err = install.WriteQRFile(opts.QRFile, url); err != nil {
			return err
		}
	}

	return nil
}
