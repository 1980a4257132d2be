/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the PWD calculator server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, then CALC_* environment)
  2. Apply command-line flag overrides
  3. Initialize SQLite store (runs embedded migrations)
  4. Create API handler with ledger, metrics and optional PDF client
  5. Configure HTTP router
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -addr    Listen address (overrides CALC_ADDR, default :8080)
  -db      SQLite database path (overrides CALC_DB_PATH)
           Use ":memory:" for in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/calc.db"

  # Run with in-memory database
  ./server -db=":memory:"

  # Enable PDF output
  CALC_GOTENBERG_URL=http://localhost:3000 ./server

SEE ALSO:
  - config/config.go: Environment variables
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
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

	"github.com/pwdtools/calc-engine/api"
	"github.com/pwdtools/calc-engine/config"
	"github.com/pwdtools/calc-engine/document"
	"github.com/pwdtools/calc-engine/generic"
	"github.com/pwdtools/calc-engine/observability"
	"github.com/pwdtools/calc-engine/store/sqlite"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}

	// Flags
	addr := flag.String("addr", cfg.Addr, "HTTP listen address")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	flag.Parse()

	logger := observability.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	policy, err := cfg.Words()
	if err != nil {
		return err
	}

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer store.Close()

	// Initialize handler
	handler := api.NewHandler(generic.NewLedger(store), policy, logger)
	handler.Ping = store.Ping
	handler.Metrics = observability.NewMetrics()
	handler.MaxUploadBytes = cfg.UploadLimit()
	handler.MaxBatchRows = cfg.BatchMaxRows
	handler.Batch.Workers = cfg.BatchWorkers
	if cfg.GotenbergURL != "" {
		handler.PDF = document.NewGotenbergClient(cfg.GotenbergURL, cfg.GotenbergTimeout)
	}

	// Create router
	router := api.NewRouter(handler, api.RouterOptions{
		CORSOrigins: cfg.CORSOrigins,
		RateLimit:   cfg.RateLimit,
	})

	// Create server
	server := &http.Server{
		Addr:         *addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", *addr, "db", *dbPath, "pdf", cfg.GotenbergURL != "")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for interrupt signal
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
