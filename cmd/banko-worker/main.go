package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"banko/internal/amqp"
	"banko/internal/backend"
	"banko/internal/config"
	applog "banko/internal/log"
	"banko/internal/storage"
	"banko/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Component: applog.ComponentWorker})
	applog.SetDefault(logger)

	logger.Info("Starting banko-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appender, err := backend.NewAppender(ctx, cfg.ExportBackend)
	if err != nil {
		logger.Error("Failed to initialize export backend", "error", err, "backend", cfg.ExportBackend)
		os.Exit(1)
	}
	logger.Info("Export backend initialized", "backend", cfg.ExportBackend)

	exportWorker := worker.NewExportWorker(repo, appender, cfg.ExportBatchSize)

	// Repair drifted balances and drain any export backlog before
	// consuming live events.
	if err := exportWorker.StartupCheck(ctx); err != nil {
		logger.Error("Startup check failed", "error", err)
		// Don't exit - continue with normal operation
	}

	g, ctx := errgroup.WithContext(ctx)

	if cfg.AMQPURL != "" {
		g.Go(func() error {
			return amqp.ConsumeWithReconnect(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, func(msg *amqp.LedgerEventMessage) error {
				return exportWorker.HandleLedgerEvent(ctx, msg)
			})
		})
	} else {
		logger.Info("AMQP disabled - relying on the pending sweep only")
	}

	g.Go(func() error {
		return exportWorker.RunPendingSweep(ctx, cfg.ExportInterval)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
