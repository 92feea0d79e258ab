// Command ciid runs the country-instability daemon: it consumes typed event
// batches from Kafka, maintains per-country signal state, recomputes scores on
// a fixed cadence, correlates alerts, and serves the results over HTTP.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	httpadapter "github.com/geofusion/instability-core/internal/adapter/http"
	kafkaadapter "github.com/geofusion/instability-core/internal/adapter/kafka"
	"github.com/geofusion/instability-core/internal/alerting"
	"github.com/geofusion/instability-core/internal/config"
	"github.com/geofusion/instability-core/internal/convergence"
	"github.com/geofusion/instability-core/internal/geo"
	"github.com/geofusion/instability-core/internal/observability"
	"github.com/geofusion/instability-core/internal/pipeline"
	"github.com/geofusion/instability-core/internal/scoring"
	"github.com/geofusion/instability-core/internal/signals"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	index := geo.NewIndex(logger)
	if cfg.GeometryPath != "" {
		// Geometry failure degrades point resolution to the fallback boxes
		// rather than failing startup.
		if err := index.Load(cfg.GeometryPath); err != nil {
			logger.Warn("boundary dataset unavailable, coarse resolution only",
				"path", cfg.GeometryPath, "error", err)
		}
	} else {
		logger.Info("no GEOMETRY_PATH configured, coarse resolution only")
	}

	store := signals.NewStore(index, logger, metrics)
	scorer := scoring.New(store, index, logger, metrics, clock, cfg.LearningWindow)
	alerts := alerting.New(logger, metrics, clock)
	aggregator := convergence.New(index, store.Resolver(), logger, clock)

	consumer := kafkaadapter.NewConsumer(cfg, store, aggregator, logger)
	driver := pipeline.New(scorer, alerts, aggregator, cfg.RefreshInterval, logger, metrics, clock)

	srv := httpadapter.NewServer(cfg.HTTPAddr, driver, driver, alerts, aggregator, store, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start Kafka ingestion.
	go func() {
		if err := consumer.Run(ctx); err != nil {
			logger.Error("kafka consumer error", "error", err)
		}
	}()

	// Start refresh loop.
	go func() {
		if err := driver.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("refresh driver error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := consumer.Close(); err != nil {
		logger.Error("kafka consumer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
