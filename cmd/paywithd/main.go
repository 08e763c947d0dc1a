// Command paywithd runs the payment gateway HTTP service: it initializes
// payments, verifies them, and receives gateway webhooks, persisting
// payment records to the configured store.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/paywith/paywith/internal/config"
	"github.com/paywith/paywith/internal/httpserver"
	"github.com/paywith/paywith/internal/lifecycle"
	"github.com/paywith/paywith/internal/logger"
	"github.com/paywith/paywith/internal/metrics"
	"github.com/paywith/paywith/internal/refstore"
)

const version = "0.1.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "paywithd:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	flag.Parse()

	// Secrets usually live in .env during local development. Missing file
	// is fine in production where the environment is set externally.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	appLogger := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Service:     "paywithd",
		Version:     version,
		Environment: cfg.Logging.Environment,
	})

	cleanup := lifecycle.NewManager(appLogger)
	defer func() {
		if err := cleanup.Close(); err != nil {
			appLogger.Error().Err(err).Msg("shutdown.cleanup_failed")
		}
	}()

	// The default registry already carries the Go and process collectors
	// that /metrics is expected to expose.
	metricsCollector := metrics.New(prometheus.DefaultRegisterer)

	backing, err := refstore.NewStore(cfg.Storage)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	store := refstore.NewInstrumentedStore(backing, metricsCollector)
	cleanup.Register("payment store", store)

	srv := httpserver.New(cfg, store, metricsCollector, appLogger)

	errCh := make(chan error, 1)
	go func() {
		appLogger.Info().
			Str("address", cfg.Server.Address).
			Str("gateway", cfg.Gateways.Default).
			Str("storage", store.Driver()).
			Msg("server.starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	appLogger.Info().Msg("server.shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	appLogger.Info().Msg("server.stopped")
	return nil
}
