package main

import (
	"context"
	"os"
	"time"

	"neoledger/internal/amqp"
	"neoledger/internal/cli"
	ports "neoledger/internal/sheets"
	gsheet "neoledger/internal/sheets/google"
	"neoledger/internal/sheets/memory"
	"neoledger/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting neoledger-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// Without a spreadsheet the worker still drains the queue into an
	// in-memory sink so messages don't pile up in the broker.
	var writer ports.LedgerWriter
	if cfg.MirrorEnabled() {
		sheetsClient, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		writer = sheetsClient
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		writer = memory.New()
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, using in-memory sink")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	baseCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A consume failure cancels baseCtx, which drives the same shutdown
	// path as a signal.
	ctx, done := cli.GracefulShutdown(baseCtx, logger, 30*time.Second, nil)

	mirrorWorker := worker.NewMirrorWorker(repo, writer, cfg.MirrorBatchSize)

	// Catch up on transactions recorded while the worker was down.
	logger.Info("Performing startup mirror check...")
	if err := mirrorWorker.StartupCheck(ctx); err != nil {
		logger.Error("Failed startup mirror check", "error", err)
		// Don't exit - continue with normal operation
	}

	go func() {
		handler := func(msg *amqp.TransactionRecordedMessage) error {
			return mirrorWorker.HandleRecordedMessage(ctx, msg)
		}
		if err := amqpClient.ConsumeTransactionRecorded(ctx, handler); err != nil {
			if err != context.Canceled {
				logger.Error("Message consumption failed", "error", err)
			}
			cancel()
		}
	}()

	// Periodic scan catches transactions whose events were lost.
	ticker := time.NewTicker(cfg.MirrorInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := mirrorWorker.ProcessPendingMirrors(ctx); err != nil {
					logger.Error("Periodic mirror failed", "error", err)
				}
			}
		}
	}()

	cli.WaitForShutdown(done)
}
