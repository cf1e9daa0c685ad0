package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"expensebook/internal/backend"
	"expensebook/internal/cli"
	apphttp "expensebook/internal/http"
	"expensebook/internal/log"
	"expensebook/internal/store"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		cli.Fatal(logger, "Invalid backend configuration", err)
	}
	factory := backend.NewFactory(logger)

	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	res, err := factory.CreateBackend(initCtx, backendConfig)
	initCancel()
	if err != nil {
		cli.Fatal(logger, "Failed to initialize backend", err, "backend", cfg.DataBackend)
	}

	persisterOpts := []store.PersisterOption{store.WithLogger(logger)}
	notifier, closeNotifier := factory.CreateNotifier(backendConfig)
	if notifier != nil {
		persisterOpts = append(persisterOpts, store.WithNotifier(notifier))
	}

	st := store.New(logger)
	persister := store.NewPersister(res.Repository, cfg.PersistDelay, persisterOpts...)

	srv := apphttp.NewServer(":"+cfg.Port, st, apphttp.Options{
		Logger:     logger,
		RateLimit:  cfg.RateLimitPerMinute,
		ExportYear: cfg.ExportYear,
	})

	// Hydrate in the background; /readyz answers 503 until it finishes.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		start := time.Now()
		if err := persister.Hydrate(ctx, st); err != nil {
			// The persister has logged the cause.
			logger.Warn("Serving an empty state", log.FieldOperation, log.OpHydrate)
			return
		}
		logger.Info("State hydrated",
			log.FieldEntries, st.State().Expenses.Count(),
			log.FieldDuration, time.Since(start).Milliseconds())
	}()

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err, log.FieldOperation, log.OpShutdown)
		}
		persister.Close(ctx)
		if closeNotifier != nil {
			if err := closeNotifier(); err != nil {
				logger.Warn("AMQP close error", log.FieldError, err)
			}
		}
		if err := res.Close(); err != nil {
			logger.Warn("Backend close error", log.FieldError, err)
		}
	})

	logger.Info("Starting expensebook server",
		log.FieldOperation, log.OpStartup,
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"notifications", notifier != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		cli.Fatal(logger, "Server error", err, "port", cfg.Port)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
