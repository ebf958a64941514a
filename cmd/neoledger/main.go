package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"neoledger/internal/amqp"
	"neoledger/internal/cli"
	apphttp "neoledger/internal/http"
	"neoledger/internal/policy"
	"neoledger/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// AMQP is optional: without a broker the mirror worker falls back to
	// its periodic pending scan.
	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, transaction events disabled", "error", err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	budget := policy.FromLimit(cfg.BudgetLimitCents)
	ledger := services.NewLedgerService(repo, budget, publisher)

	srv := apphttp.NewServer(":"+cfg.Port, ledger, repo)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	_, done := cli.GracefulShutdown(context.Background(), logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	})

	logger.Info("Starting neoledger server",
		"port", cfg.Port,
		"db_path", cfg.SQLiteDBPath,
		"budget_limit_cents", cfg.BudgetLimitCents)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(done)
	logger.Info("Server stopped gracefully")
}
