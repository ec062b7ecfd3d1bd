package sensor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	api "github.com/oshokin/next-alarm/internal/api/grpc/sensor"
	"github.com/oshokin/next-alarm/internal/config"
	"github.com/oshokin/next-alarm/internal/logger"
)

// Options controls the sensor reader.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// ServerAddress overrides the gRPC address from the config.
	ServerAddress string
	// Watch keeps polling and prints the state whenever it changes.
	Watch bool
	// PollInterval is the delay between polls in watch mode.
	PollInterval time.Duration
	// Output receives the rendered states, stdout when nil.
	Output io.Writer
}

// DefaultPollInterval is the watch mode polling interval.
const DefaultPollInterval = 30 * time.Second

// ErrNoServerAddress indicates that neither the config nor the flags name a gRPC server.
var ErrNoServerAddress = errors.New("no grpc server address configured")

// Run prints the current state object and, in watch mode, every later change
// until ctx is canceled.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "next-alarm-sensor")

	cfg, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	address := opts.ServerAddress
	if address == "" {
		address = DialAddress(cfg.GRPCAddress)
	}

	if address == "" {
		return ErrNoServerAddress
	}

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	client, err := api.Dial(ctx, address, api.WithCallTimeout(cfg.Timeout))
	if err != nil {
		return fmt.Errorf("dial server: %w", err)
	}

	defer func() {
		_ = client.Close()
	}()

	last, err := client.GetNextAlarm(ctx)
	if err != nil {
		return fmt.Errorf("get next alarm: %w", err)
	}

	if err = render(out, last); err != nil {
		return err
	}

	if !opts.Watch {
		return nil
	}

	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	logger.InfoKV(ctx, "Watching next alarm", "server_address", address, "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Context canceled, exiting")

			return nil
		case <-ticker.C:
			state, err := client.GetNextAlarm(ctx)
			if err != nil {
				logger.ErrorKV(ctx, "GetNextAlarm failed", "error", err)

				continue
			}

			if proto.Equal(state, last) {
				continue
			}

			last = state

			if err = render(out, state); err != nil {
				return err
			}
		}
	}
}

// DialAddress turns a listen address such as ":9090" into a dialable one.
func DialAddress(listen string) string {
	if listen == "" {
		return ""
	}

	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return listen
	}

	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}

	return net.JoinHostPort(host, port)
}

// render writes the state as indented JSON followed by a newline.
func render(out io.Writer, state *structpb.Struct) error {
	data, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	if _, err = fmt.Fprintln(out, string(data)); err != nil {
		return fmt.Errorf("write state: %w", err)
	}

	return nil
}
