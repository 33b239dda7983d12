// cmd/shell/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"mediashelf/internal/catalog"
	"mediashelf/internal/clients"
	"mediashelf/internal/config"
	"mediashelf/internal/eventstore"
	"mediashelf/internal/shell"
	"mediashelf/internal/telemetry"
)

func main() {
	cfg := config.Load()
	// The menu owns stdout, so logs go to stderr.
	logger := telemetry.NewLogger(os.Stderr, cfg.LogLevel, "mediashelf-shell")
	for _, w := range cfg.Warnings {
		logger.Warn("config value ignored", "detail", w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var svc catalog.Service
	if cfg.CatalogServiceURL != "" {
		logger.Info("using remote catalog", "url", cfg.CatalogServiceURL)
		svc = clients.NewCatalogClient(cfg.CatalogServiceURL, &http.Client{Timeout: 10 * time.Second})
	} else {
		local, err := catalog.NewService(eventstore.NewEventStore(), catalog.WithLogger(logger))
		if err != nil {
			logger.Error("failed to create catalog service", "error", err)
			os.Exit(1)
		}
		svc = local
	}

	if err := shell.New(svc, os.Stdin, os.Stdout).Run(ctx); err != nil {
		logger.Error("shell stopped", "error", err)
		os.Exit(1)
	}
}
