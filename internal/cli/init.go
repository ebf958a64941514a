// Package cli holds the startup and shutdown plumbing shared by the
// neoledger binaries.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"neoledger/internal/config"
	"neoledger/internal/storage"
)

// SetupLogger builds the process-wide text logger and installs it as the
// slog default.
func SetupLogger() *slog.Logger {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)
	return logger
}

// LoadEnvFile reads a .env file if one exists. Missing files are fine;
// deployed processes get their environment from the outside.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig reads the environment into a Config and exits the
// process when the result is unusable.
func LoadAndValidateConfig(logger *slog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// InitSQLite opens the SQLite repository at dbPath, running migrations, and
// exits the process when the store cannot be opened.
func InitSQLite(logger *slog.Logger, dbPath string) *storage.SQLiteRepository {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", dbPath)
		os.Exit(1)
	}
	return repo
}

// GracefulShutdown arms SIGINT/SIGTERM handling for a long-running binary.
// The returned context is cancelled once shutdown starts, whether it was
// triggered by a signal or by cancelling parent. cleanup, if non-nil, runs
// before the context is cancelled and gets at most timeout to finish. The
// done channel closes when the whole sequence is over.
func GracefulShutdown(parent context.Context, logger *slog.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	go func() {
		defer close(done)

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
		case <-ctx.Done():
			logger.Info("Shutdown requested")
		}

		if cleanup != nil {
			cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), timeout)
			cleanup(cleanupCtx)
			cleanupCancel()
		}
		cancel()
		logger.Info("Shutdown complete")
	}()

	return ctx, done
}

// WaitForShutdown blocks until the shutdown sequence started by
// GracefulShutdown has finished.
func WaitForShutdown(done <-chan struct{}) {
	<-done
}
