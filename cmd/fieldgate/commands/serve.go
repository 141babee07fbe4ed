package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fieldgate/fieldgate/pkg/config"
	"github.com/fieldgate/fieldgate/pkg/engine"
	"github.com/fieldgate/fieldgate/pkg/peers"
	"github.com/fieldgate/fieldgate/pkg/stores"
	"github.com/fieldgate/fieldgate/pkg/telemetry"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run an entity node",
		Long: `Run a single governed entity: the oscillation field, the
homeostasis loop, the transition gate, and the peer-facing HTTP server.

The node runs until interrupted. On shutdown the peer server drains,
the entity's owner goroutine stops, and the audit store is closed.`,
		Example: `  # Run with defaults
  fieldgate serve

  # Run with a config file
  fieldgate serve --config ./fieldgate.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
	return cmd
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger, err := telemetry.NewLogger(cfg.Telemetry.Logging)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	var metrics *telemetry.Metrics
	if cfg.Telemetry.Metrics.Enabled {
		metrics, err = telemetry.NewMetrics(cfg.Telemetry.Metrics)
		if err != nil {
			return fmt.Errorf("failed to create metrics: %w", err)
		}
	}

	tracer, err := telemetry.NewTracer(cfg.Telemetry.Tracing,
		cfg.Telemetry.ServiceName, cfg.Telemetry.ServiceVersion, cfg.Telemetry.Environment)
	if err != nil {
		return fmt.Errorf("failed to create tracer: %w", err)
	}

	opts := []engine.Option{
		engine.WithMetrics(metrics),
		engine.WithTracer(tracer),
	}

	var store stores.Store
	if cfg.StorePath != "" {
		store, err = stores.NewSQLiteStore(stores.Config{Path: cfg.StorePath})
		if err != nil {
			return err
		}
		if err := store.Init(ctx); err != nil {
			return fmt.Errorf("failed to open audit store: %w", err)
		}
		defer store.Close()
		if err := store.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate audit store: %w", err)
		}
		opts = append(opts, engine.WithStore(store))
	}

	neighbors := make([]engine.Peer, 0, len(cfg.Peers))
	for _, p := range cfg.Peers {
		neighbors = append(neighbors, engine.Peer{ID: p.ID, Address: p.Address})
	}
	if len(neighbors) > 0 {
		protocol := peers.NewProtocol(cfg.Entity.PeerTimeout, logger,
			peers.WithMetrics(metrics),
			peers.WithTracer(tracer),
		)
		opts = append(opts, engine.WithHandshaker(protocol), engine.WithNeighbors(neighbors))
	}

	entity := engine.New(cfg.Entity, logger, opts...)
	entity.Start()
	logger.WithEntityID(entity.ID()).Infof("Entity running with %d known peers", len(neighbors))

	server := peers.NewServer(cfg.ListenAddress, entity, logger, metrics)
	server.Start()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("Peer server shutdown failed")
	}
	entity.Stop()
	if err := tracer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("Tracer shutdown failed")
	}
	return nil
}
