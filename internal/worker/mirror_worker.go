package worker

import (
	"context"
	"fmt"
	"log/slog"

	"neoledger/internal/amqp"
	"neoledger/internal/core"
	"neoledger/internal/sheets"
	"neoledger/internal/storage"
)

// MirrorWorker copies recorded transactions from SQLite to the audit sheet.
type MirrorWorker struct {
	storage   *storage.SQLiteRepository
	sheets    sheets.LedgerWriter
	batchSize int
}

func NewMirrorWorker(storage *storage.SQLiteRepository, sheets sheets.LedgerWriter, batchSize int) *MirrorWorker {
	return &MirrorWorker{
		storage:   storage,
		sheets:    sheets,
		batchSize: batchSize,
	}
}

// HandleRecordedMessage processes a single transaction-recorded message from AMQP.
func (w *MirrorWorker) HandleRecordedMessage(ctx context.Context, msg *amqp.TransactionRecordedMessage) error {
	slog.InfoContext(ctx, "Processing recorded message", "id", msg.ID)

	tx, err := w.storage.GetTransaction(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	if err := w.mirrorToSheets(ctx, msg.ID, tx); err != nil {
		return fmt.Errorf("mirror transaction to sheets: %w", err)
	}

	return nil
}

// ProcessPendingMirrors mirrors any transactions that haven't reached the
// sheet yet. This is a backup mechanism in case AMQP messages are lost.
func (w *MirrorWorker) ProcessPendingMirrors(ctx context.Context) error {
	pending, err := w.storage.PendingMirror(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending transactions: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending mirrors", "count", len(pending))

	for _, p := range pending {
		tx, err := w.storage.GetTransaction(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get transaction", "id", p.ID, "error", err)
			if err := w.storage.MarkMirrorError(ctx, p.ID, err.Error()); err != nil {
				slog.ErrorContext(ctx, "Failed to mark mirror error", "id", p.ID, "error", err)
			}
			continue
		}

		if err := w.mirrorToSheets(ctx, p.ID, tx); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror transaction", "id", p.ID, "error", err)
			continue
		}
	}

	return nil
}

// StartupCheck mirrors pending transactions at worker startup. This recovers
// from missed AMQP messages or worker downtime.
func (w *MirrorWorker) StartupCheck(ctx context.Context) error {
	pending, err := w.storage.PendingMirror(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending transactions for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending transactions found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending transactions on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0

	for _, p := range pending {
		tx, err := w.storage.GetTransaction(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get transaction for startup mirror",
				"id", p.ID, "error", err)
			if err := w.storage.MarkMirrorError(ctx, p.ID, err.Error()); err != nil {
				slog.ErrorContext(ctx, "Failed to mark mirror error", "id", p.ID, "error", err)
			}
			errorCount++
			continue
		}

		if err := w.mirrorToSheets(ctx, p.ID, tx); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror transaction during startup",
				"id", p.ID, "error", err)
			errorCount++
			continue
		}

		successCount++
	}

	slog.InfoContext(ctx, "Startup mirror completed",
		"total", len(pending),
		"mirrored", successCount,
		"errors", errorCount)

	return nil
}

func (w *MirrorWorker) mirrorToSheets(ctx context.Context, id int64, tx core.Transaction) error {
	ref, err := w.sheets.Append(ctx, tx)
	if err != nil {
		if markErr := w.storage.MarkMirrorError(ctx, id, err.Error()); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark mirror error", "id", id, "error", markErr)
		}
		return fmt.Errorf("append to sheets: %w", err)
	}

	if err := w.storage.MarkMirrored(ctx, id); err != nil {
		// The append worked; a stale pending flag only causes a redundant retry.
		slog.ErrorContext(ctx, "Failed to mark as mirrored", "id", id, "error", err)
	}

	slog.InfoContext(ctx, "Successfully mirrored transaction",
		"id", id,
		"sheets_ref", ref,
		"customer_id", tx.CustomerID,
		"amount_cents", tx.Amount.Cents)

	return nil
}
