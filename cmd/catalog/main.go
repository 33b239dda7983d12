// cmd/catalog/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"mediashelf/internal/catalog"
	"mediashelf/internal/config"
	"mediashelf/internal/eventstore"
	"mediashelf/internal/telemetry"
)

func main() {
	cfg := config.Load()
	logger := telemetry.NewLogger(os.Stdout, cfg.LogLevel, cfg.ServiceName)
	for _, w := range cfg.Warnings {
		logger.Warn("config value ignored", "detail", w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		logger.Error("failed to set up tracing", "error", err)
		os.Exit(1)
	}

	shutdownMetrics, err := telemetry.SetupMetrics(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		logger.Error("failed to set up metrics", "error", err)
		os.Exit(1)
	}

	svc, err := catalog.NewService(eventstore.NewEventStore(), catalog.WithLogger(logger))
	if err != nil {
		logger.Error("failed to create catalog service", "error", err)
		os.Exit(1)
	}

	limiter := rate.NewLimiter(rate.Limit(float64(cfg.RateLimitPerMinute)/60), cfg.RateLimitBurst)
	handler := catalog.NewHandler(svc, limiter, logger)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		fmt.Printf("🚀 Starting Catalog Service on port %s\n", cfg.Port)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutting down", "timeout", cfg.ShutdownTimeout.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("tracing shutdown failed", "error", err)
	}
	if err := shutdownMetrics(shutdownCtx); err != nil {
		logger.Error("metrics shutdown failed", "error", err)
	}
}
