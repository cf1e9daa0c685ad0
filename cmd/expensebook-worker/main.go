package main

import (
	"context"
	"errors"
	"os"
	"time"

	"expensebook/internal/amqp"
	"expensebook/internal/backend"
	"expensebook/internal/cli"
	"expensebook/internal/log"
	"expensebook/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	logger.Info("Starting expensebook-worker", log.FieldOperation, log.OpStartup)

	cfg := cli.LoadAndValidateConfig(logger)
	if !cfg.AMQPEnabled() {
		cli.Fatal(logger, "Worker needs AMQP", errors.New("AMQP_URL is not set"))
	}
	if cfg.DataBackend == string(backend.MemoryBackend) {
		logger.Warn("Memory backend is process-local; backups will only see an empty state")
	}

	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		cli.Fatal(logger, "Invalid backend configuration", err)
	}
	factory := backend.NewFactory(logger)

	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	res, err := factory.CreateBackend(initCtx, backendConfig)
	if err != nil {
		initCancel()
		cli.Fatal(logger, "Failed to initialize backend", err, "backend", cfg.DataBackend)
	}
	sink, closeSink, err := factory.CreateBackupSink(initCtx, backendConfig)
	initCancel()
	if err != nil {
		cli.Fatal(logger, "Failed to initialize backup sink", err, "sink", cfg.BackupSink)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize AMQP client", err)
	}

	backups := worker.NewBackupWorker(res.Repository, sink, cfg.ExportYear, logger)

	ctx, done := cli.GracefulShutdown(logger, 15*time.Second, func(context.Context) {
		if err := amqpClient.Close(); err != nil {
			logger.Warn("AMQP close error", log.FieldError, err)
		}
		if closeSink != nil {
			if err := closeSink(); err != nil {
				logger.Warn("Backup sink close error", log.FieldError, err)
			}
		}
		if err := res.Close(); err != nil {
			logger.Warn("Backend close error", log.FieldError, err)
		}
	})

	// Catch up on anything saved while the worker was down.
	if name, err := backups.BackupNow(ctx); err != nil {
		logger.Error("Startup backup failed", log.FieldError, err, log.FieldOperation, log.OpBackup)
	} else {
		logger.Info("Startup backup written", log.FieldFile, name)
	}

	go func() {
		if err := amqpClient.ConsumeStateSaved(ctx, backups.HandleStateSaved); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption stopped", log.FieldError, err)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
