package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nadzzz/voxmate/internal/assistant"
	"github.com/nadzzz/voxmate/internal/config"
	"github.com/nadzzz/voxmate/internal/dispatch"
	"github.com/nadzzz/voxmate/internal/health"
	"github.com/nadzzz/voxmate/internal/message"
	"github.com/nadzzz/voxmate/internal/session"
	"github.com/nadzzz/voxmate/internal/telemetry"
	"github.com/nadzzz/voxmate/internal/transport"
	grpctransport "github.com/nadzzz/voxmate/internal/transport/grpc"
	httptransport "github.com/nadzzz/voxmate/internal/transport/http"
	natstransport "github.com/nadzzz/voxmate/internal/transport/nats"
)

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the voxmate daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Create root context with signal handling for graceful shutdown.
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return serve(ctx, *configPath)
		},
	}
}

func serve(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	config.SetupLogging(cfg.Logging)
	slog.Info("voxmate starting", "version", version)

	if err := config.Watch(configPath, config.ApplyLogging); err != nil {
		slog.Warn("config hot reload disabled", "error", err)
	}

	shutdownTracing, err := telemetry.Setup(cfg.Tracing, version, os.Stdout)
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	a, err := newAssistant(cfg.Assistant)
	if err != nil {
		return err
	}
	sessions := session.NewStore(cfg.Session.IdleTTL)

	// Initialize enabled transports.
	var transports []transport.Transport
	if cfg.Transports.HTTP.Enabled {
		transports = append(transports, httptransport.New(cfg.Transports.HTTP))
	}
	if cfg.Transports.GRPC.Enabled {
		transports = append(transports, grpctransport.New(cfg.Transports.GRPC.Port))
	}
	if cfg.Transports.NATS.Enabled {
		transports = append(transports, natstransport.New(cfg.Transports.NATS))
	}
	if len(transports) == 0 {
		return errors.New("no transports enabled, enable at least one in config")
	}

	dispatcher := dispatch.New(a, sessions, transports,
		dispatch.WithDefaultTargets(defaultTargets(cfg.Targets)))

	healthServer := health.New(cfg.Server.HealthPort)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return healthServer.ListenAndServe(ctx) })
	if cfg.Session.IdleTTL > 0 {
		g.Go(func() error {
			sessions.Run(ctx, cfg.Session.SweepInterval)
			return nil
		})
	}
	for _, t := range transports {
		g.Go(func() error {
			slog.Info("starting transport", "name", t.Name())
			if err := t.Listen(ctx, dispatcher.Handle); err != nil {
				return fmt.Errorf("%s transport: %w", t.Name(), err)
			}
			return nil
		})
	}

	// Mark as ready once all transports are started.
	healthServer.SetReady(true)
	slog.Info("voxmate ready",
		"transports", len(transports),
		"targets", len(cfg.Targets),
		"health_port", cfg.Server.HealthPort)

	// Block until shutdown signal or a component failure.
	<-ctx.Done()
	healthServer.SetReady(false)
	slog.Info("shutting down, draining...")

	// Close all transports gracefully.
	for _, t := range transports {
		if err := t.Close(); err != nil {
			slog.Error("transport close error", "name", t.Name(), "error", err)
		}
	}

	err = g.Wait()
	slog.Info("voxmate stopped")
	return err
}

// newAssistant builds the interpreter from its config section.
func newAssistant(cfg config.AssistantConfig) (*assistant.Assistant, error) {
	loc := time.Local
	if cfg.Timezone != "" && cfg.Timezone != "Local" {
		var err error
		if loc, err = time.LoadLocation(cfg.Timezone); err != nil {
			return nil, fmt.Errorf("loading timezone: %w", err)
		}
	}

	opts := []assistant.Option{
		assistant.WithLocation(loc),
		assistant.WithLogger(slog.Default().With("component", "assistant")),
	}
	if cfg.Phrasebook != "" {
		pb, err := assistant.LoadPhrasebook(cfg.Phrasebook)
		if err != nil {
			return nil, err
		}
		opts = append(opts, assistant.WithPhrasebook(pb))
	}
	return assistant.New(opts...), nil
}

// defaultTargets turns the configured targets into routing targets, ordered by name.
func defaultTargets(targets map[string]config.Target) []message.Target {
	out := make([]message.Target, 0, len(targets))
	for _, name := range slices.Sorted(maps.Keys(targets)) {
		t := targets[name]
		out = append(out, message.Target{ServiceName: name, Endpoint: t.Endpoint, Protocol: t.Protocol})
	}
	return out
}
