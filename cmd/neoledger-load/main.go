package main

import (
	"context"
	"flag"
	"os"
	"time"

	"neoledger/internal/cli"
	"neoledger/internal/loader"
)

func main() {
	merchantsPath := flag.String("merchants", "merchants.csv", "path to the merchants CSV")
	transactionsPath := flag.String("transactions", "transactions.csv", "path to the transactions CSV")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	logger.Info("Loading ledger data",
		"merchants", *merchantsPath,
		"transactions", *transactionsPath,
		"db_path", cfg.SQLiteDBPath)

	if err := loader.Load(ctx, repo, *merchantsPath, *transactionsPath); err != nil {
		logger.Error("Load failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Load complete")
}
