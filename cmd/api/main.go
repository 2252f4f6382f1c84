package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/wolfman30/psychwebmd-intake/cmd/mainconfig"
	"github.com/wolfman30/psychwebmd-intake/internal/app/bootstrap"
	appconfig "github.com/wolfman30/psychwebmd-intake/internal/config"
	"github.com/wolfman30/psychwebmd-intake/internal/observability/tracing"
	"github.com/wolfman30/psychwebmd-intake/pkg/logging"
)

const (
	sweepInterval = time.Minute
	sessionIdle   = 30 * time.Minute
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting psychwebmd intake API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"storage_backend", cfg.StorageBackend,
		"draft_backend", cfg.DraftBackend,
		"draft_ttl", cfg.DraftTTL.String(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, cfg.ServiceName, cfg.Env, cfg.OTLPEndpoint)
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
		shutdownTracing = func(context.Context) error { return nil }
	}

	srv, api, err := buildServer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build api", "error", err)
		os.Exit(1)
	}
	defer api.Close()

	go api.Engine.RunSweeper(ctx, sweepInterval, sessionIdle)

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "base_path", cfg.APIBasePath)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracing shutdown failed", "error", err)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

func buildServer(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*http.Server, *bootstrap.API, error) {
	dynamoClient, err := mainconfig.DynamoClient(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("load aws config: %w", err)
	}

	api, err := bootstrap.BuildAPI(ctx, cfg, logger, bootstrap.APIOptions{DynamoClient: dynamoClient})
	if err != nil {
		return nil, nil, err
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.Handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return srv, api, nil
}
