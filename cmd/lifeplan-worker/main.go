package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"lifeplan/internal/amqp"
	"lifeplan/internal/backend"
	"lifeplan/internal/config"
	"lifeplan/internal/log"
	"lifeplan/internal/services"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.Config{Component: log.ComponentWorker})
	log.SetDefault(logger)

	logger.Info("Starting lifeplan-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := backend.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize data backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if store.Cleanup != nil {
		defer store.Cleanup()
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	reports := services.NewReportService(store.Store, cfg.UserID)

	handle := func(job *amqp.RecomputeJob) error {
		jobLog := logger.With(log.FieldJobKind, job.Kind, log.FieldUserID, job.UserID)
		jobLog.Info("Processing recompute job")
		switch job.Kind {
		case amqp.JobMonthly:
			return reports.RecomputeMonthly(ctx, job.UserID)
		case amqp.JobBalances:
			return reports.RecalculateBalances(ctx, job.UserID)
		default:
			// Unknown kinds are dropped, not requeued.
			jobLog.Warn("Unknown job kind, skipping")
			return nil
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Consuming recompute jobs",
			"exchange", cfg.AMQPExchange,
			"queue", cfg.AMQPQueue)
		return amqpClient.ConsumeRecompute(gctx, handle)
	})

	g.Go(func() error {
		ticker := time.NewTicker(cfg.RecalcInterval)
		defer ticker.Stop()
		logger.Info("Periodic integrity pass configured", "interval", cfg.RecalcInterval)
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
				if err := reports.RecalculateBalances(gctx, cfg.UserID); err != nil {
					logger.Error("Periodic balance recalculation failed", log.FieldError, err)
					continue
				}
				if err := reports.RecomputeMonthly(gctx, cfg.UserID); err != nil {
					logger.Error("Periodic monthly recompute failed", log.FieldError, err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		logger.Error("Worker error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
