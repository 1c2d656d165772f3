package main

import (
	"context"
	"errors"
	"os"
	"time"

	"budget/internal/cli"
	"budget/internal/log"
	"budget/internal/worker"
)

const (
	reportInterval  = 5 * time.Minute
	shutdownTimeout = 30 * time.Second
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.LogLevel).WithComponent(log.ComponentWorker)

	logger.Info("Starting budget-worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required by the worker")
		os.Exit(1)
	}

	// The archive lives in the same sqlite file as the ledger tables.
	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)

	client := cli.ConnectAMQP(logger, cfg)
	if client == nil {
		_ = repo.Close()
		os.Exit(1)
	}

	archiver := worker.NewArchiver(repo, logger)

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, func() {
		if err := archiver.Report(context.Background()); err != nil {
			logger.Warn("Final archive report failed", log.FieldError, err.Error())
		}
		if err := client.Close(); err != nil {
			logger.Error("Failed to close AMQP client", log.FieldError, err.Error())
		}
		if err := repo.Close(); err != nil {
			logger.Error("Failed to close SQLite repository", log.FieldError, err.Error())
		}
	})

	go func() {
		if err := archiver.Run(ctx, client, reportInterval); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Event consumption failed", log.FieldError, err.Error())
		}
	}()

	cli.WaitForShutdown(ctx, done)
}
