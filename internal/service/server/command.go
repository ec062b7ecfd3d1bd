package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"google.golang.org/grpc"

	"github.com/oshokin/next-alarm/internal/api/grpc/sensor"
	"github.com/oshokin/next-alarm/internal/api/webhook"
	"github.com/oshokin/next-alarm/internal/calendar"
	"github.com/oshokin/next-alarm/internal/config"
	"github.com/oshokin/next-alarm/internal/logger"
	"github.com/oshokin/next-alarm/internal/metrics"
	"github.com/oshokin/next-alarm/internal/publisher/mqtt"
	"github.com/oshokin/next-alarm/internal/repository/snapshot"
	"github.com/oshokin/next-alarm/internal/scheduler"
	"github.com/oshokin/next-alarm/internal/service/coordinator"
)

// Options controls the next-alarm-server process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// HTTPAddress overrides the HTTP listen address from the config.
	HTTPAddress string
	// GRPCAddress overrides the gRPC listen address from the config.
	GRPCAddress string
	// StateFile overrides the snapshot path from the config.
	StateFile string
	// LogLevel overrides the log level from the config.
	LogLevel string
}

// ErrNoWebhookID indicates the installation has not been set up yet.
var ErrNoWebhookID = errors.New("webhook id is not configured, run next-alarm-setup first")

// Run starts the HTTP and gRPC servers and blocks until ctx is canceled or a
// server fails.
//
//nolint:funlen // Linear wiring of the components reads best in one place.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "next-alarm-server")

	settings, err := loadSettings(opts)
	if err != nil {
		return err
	}

	if !logger.Configure(settings.LogLevel, settings.LogFormat) {
		logger.WarnKV(ctx, "Unknown log level, keeping the default", "log_level", settings.LogLevel)
	}

	if settings.WebhookID == "" {
		return ErrNoWebhookID
	}

	collectors := metrics.New()
	publishers := []coordinator.Publisher{collectors}

	if settings.MQTT.Enabled() {
		publisher, disconnect, err := mqtt.Connect(ctx, settings.MQTT, settings.Timeout)
		if err != nil {
			return fmt.Errorf("connect mqtt: %w", err)
		}

		defer disconnect()

		publishers = append(publishers, publisher)
	}

	coord, err := coordinator.New(ctx,
		coordinator.WithRepository(snapshot.NewFileRepository(settings.StateFile)),
		coordinator.WithDefaultLocation(settings.Location()),
		coordinator.WithPublishers(publishers...),
	)
	if err != nil {
		return fmt.Errorf("initialise coordinator: %w", err)
	}

	refresher, err := scheduler.New(settings.RefreshSchedule, coord)
	if err != nil {
		return fmt.Errorf("initialise scheduler: %w", err)
	}

	coord.Subscribe(refresher)
	coord.Refresh(ctx)

	mux := http.NewServeMux()
	webhook.NewHandler(settings.WebhookID, coord, webhook.WithObserver(collectors)).Register(mux)
	mux.Handle("GET /metrics", collectors.Handler())
	mux.Handle("GET /api/alarms.ics", calendar.Handler(coord))

	httpServer := &http.Server{
		Handler:           webhook.WithLogging(mux),
		ReadHeaderTimeout: settings.Timeout,
		BaseContext: func(net.Listener) context.Context {
			return context.WithoutCancel(ctx)
		},
	}

	lc := net.ListenConfig{}

	httpListener, err := lc.Listen(ctx, "tcp", settings.HTTPAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", settings.HTTPAddress, err)
	}

	var grpcServer *grpc.Server

	var grpcListener net.Listener

	if settings.GRPCAddress != "" {
		grpcListener, err = lc.Listen(ctx, "tcp", settings.GRPCAddress)
		if err != nil {
			_ = httpListener.Close()

			return fmt.Errorf("listen on %s: %w", settings.GRPCAddress, err)
		}

		grpcServer = grpc.NewServer()
		sensor.RegisterSensorServer(grpcServer, sensor.NewServer(coord))
	}

	logger.InfoKV(ctx, "Next alarm server listening",
		"http_address", httpListener.Addr().String(),
		"grpc_address", settings.GRPCAddress,
		"state_file", settings.StateFile,
		"mqtt", settings.MQTT.Enabled(),
	)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup

	errs := make(chan error, 2)

	wg.Go(func() {
		if err := httpServer.Serve(httpListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- fmt.Errorf("serve http: %w", err)
		}
	})

	if grpcServer != nil {
		wg.Go(func() {
			if err := grpcServer.Serve(grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				errs <- fmt.Errorf("serve grpc: %w", err)
			}
		})
	}

	wg.Go(func() {
		_ = refresher.Run(runCtx)
	})

	var runErr error

	select {
	case <-ctx.Done():
	case runErr = <-errs:
	}

	logger.Info(ctx, "Shutting down")
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.WithoutCancel(ctx), settings.Timeout)
	defer stop()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.WarnKV(ctx, "HTTP shutdown incomplete", "error", err)
	}

	if grpcServer != nil {
		grpcServer.GracefulStop()
	}

	wg.Wait()
	logger.Info(ctx, "Next alarm server stopped")

	return runErr
}

// loadSettings reads the config file and applies command line overrides.
func loadSettings(opts *Options) (*config.Config, error) {
	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	if opts.HTTPAddress != "" {
		settings.HTTPAddress = opts.HTTPAddress
	}

	if opts.GRPCAddress != "" {
		settings.GRPCAddress = opts.GRPCAddress
	}

	if opts.StateFile != "" {
		settings.StateFile = opts.StateFile
	}

	if opts.LogLevel != "" {
		settings.LogLevel = opts.LogLevel
	}

	if err := config.Validate(settings); err != nil {
		return nil, err
	}

	return settings, nil
}
