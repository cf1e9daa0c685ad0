// Package cli provides the start-up and shutdown plumbing shared by
// cmd/expensebook, cmd/expensebook-worker and cmd/expensebook-xlsx.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"expensebook/internal/config"
	"expensebook/internal/log"
)

// SetupLogger builds the process logger at the given LOG_LEVEL and makes
// it the slog default.
func SetupLogger(level string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(level)
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads .env files for local development. Missing files are
// ignored and variables already set in the environment win.
func LoadEnvFile(paths ...string) {
	if len(paths) == 0 {
		_ = godotenv.Load()
		return
	}
	for _, p := range paths {
		_ = godotenv.Load(p)
	}
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// Fatal logs err and exits the process.
func Fatal(logger *log.Logger, msg string, err error, args ...any) {
	logger.Error(msg, append([]any{log.FieldError, err}, args...)...)
	os.Exit(1)
}

// GracefulShutdown cancels the returned context on SIGINT or SIGTERM, then
// runs cleanup with a context bounded by timeout. done is closed once
// cleanup has returned.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}

		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup is done.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
