// Command demo runs a small routebind server that binds a handful of
// example endpoint builds onto an HTTP listener.
//
// Configuration is loaded from a YAML file (see pkg/config for the
// discovery order) with ROUTEBIND_* environment overrides:
//
//	ROUTEBIND_CONFIG       - path to the config file
//	ROUTEBIND_PORT         - listen port (default: 8080)
//	ROUTEBIND_RECORDS      - record store type: "memory" or "postgres"
//	ROUTEBIND_POSTGRES_DSN - PostgreSQL DSN for records.type=postgres
//	ROUTEBIND_AUTH_TYPE    - "none" or "bearer"
//	ROUTEBIND_AUTH_SECRET  - HMAC signing secret for bearer auth
//	ROUTEBIND_LOG_LEVEL    - "error", "warn", "info", "debug", or "trace"
//	ROUTEBIND_DEBUG        - comma-separated debug categories (see pkg/debug)
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/routebind/routebind/pkg/config"
	"github.com/routebind/routebind/pkg/debug"
	"github.com/routebind/routebind/pkg/observability"
	"github.com/routebind/routebind/pkg/record"
	"github.com/routebind/routebind/pkg/record/memory"
	"github.com/routebind/routebind/pkg/record/postgres"
	transporthttp "github.com/routebind/routebind/pkg/transport/http"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	debug.Init(cfg.Logging.Debug, cfg.Logging.Level)
	logger := slog.Default()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Create the record store.
	store, err := newRecordStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("creating record store: %w", err)
	}
	defer store.Close()

	// Assemble the router and the bridge.
	router := chi.NewRouter()
	router.Use(transporthttp.RequestID)
	router.Use(transporthttp.Recovery(logger))
	router.Use(observability.MetricsMiddleware)

	bridge := transporthttp.NewBridge(router,
		transporthttp.WithLogger(logger),
		transporthttp.WithRecordStore(store),
		transporthttp.WithMaxBodySize(cfg.Server.MaxBodySize),
	)
	if err := bridge.Register(demoBuilds(cfg)...); err != nil {
		return fmt.Errorf("registering endpoints: %w", err)
	}

	// Operational endpoints live outside the bridge.
	router.Group(func(r chi.Router) {
		r.Use(transporthttp.RequestLogger(logger))
		r.Get("/healthz", healthHandler(store))
		if cfg.Observability.Metrics.Enabled {
			r.Handle(cfg.Observability.Metrics.Path, promhttp.Handler())
		}
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in background.
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			"port", cfg.Server.Port,
			"records", cfg.Records.Type,
			"auth", cfg.Auth.Type)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or error.
	select {
	case <-ctx.Done():
		logger.Info("shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// newRecordStore creates the configured record store.
func newRecordStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (record.Store, error) {
	switch cfg.Records.Type {
	case "postgres":
		store, err := postgres.New(ctx, postgres.Config{
			DSN:            cfg.Records.Postgres.DSN,
			MaxConns:       cfg.Records.Postgres.MaxConns,
			MigrateOnStart: cfg.Records.Postgres.MigrateOnStart,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("record store enabled", "type", "postgres")
		return store, nil
	default:
		logger.Info("record store enabled", "type", "memory", "max_size", cfg.Records.MaxSize)
		return memory.New(cfg.Records.MaxSize), nil
	}
}

func healthHandler(store record.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := store.HealthCheck(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintf(w, "record store: %v\n", err)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	}
}
