package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"neoledger/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the ledger store. It is constructed explicitly and
// injected into the components that need it; there is no package-level
// database handle.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the store is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}
	return nil
}

// InsightsByCategory runs the filter/aggregate pipeline over the ledger:
// card transactions matching the filter, grouped by merchant category,
// summed and ordered by total descending. Transactions whose merchant_id
// has no merchants row do not contribute (inner join).
func (r *SQLiteRepository) InsightsByCategory(ctx context.Context, f InsightFilter) ([]core.CategoryInsight, error) {
	query, args := buildInsightQuery(f)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query insights: %w", wrapStoreErr(err))
	}
	defer rows.Close()

	insights := []core.CategoryInsight{}
	for rows.Next() {
		var row core.CategoryInsight
		if err := rows.Scan(&row.Category, &row.Amount); err != nil {
			return nil, fmt.Errorf("scan insight row: %w", err)
		}
		insights = append(insights, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate insight rows: %w", wrapStoreErr(err))
	}

	return insights, nil
}

// AppendTransaction inserts a single ledger row and returns its ID.
func (r *SQLiteRepository) AppendTransaction(ctx context.Context, tx core.Transaction) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (customer_id, merchant_id, amount_cents, is_card, date)
		 VALUES (?, ?, ?, ?, ?)`,
		tx.CustomerID, tx.MerchantID, tx.Amount.Cents, boolToInt(tx.IsCard), tx.Date.String(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", wrapStoreErr(err))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("transaction insert id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction appended to ledger",
		"id", id,
		"customer_id", tx.CustomerID,
		"merchant_id", tx.MerchantID,
		"amount_cents", tx.Amount.Cents,
		"is_card", tx.IsCard,
		"date", tx.Date.String())

	return id, nil
}

// GetTransaction retrieves a single ledger row by ID.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	var (
		tx      core.Transaction
		isCard  int64
		dateStr string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, customer_id, merchant_id, amount_cents, is_card, date
		 FROM transactions WHERE id = ?`, id,
	).Scan(&tx.ID, &tx.CustomerID, &tx.MerchantID, &tx.Amount.Cents, &isCard, &dateStr)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, wrapStoreErr(err))
	}

	tx.IsCard = isCard != 0
	tx.Date, err = core.ParseDate(dateStr)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction date %q: %w", dateStr, err)
	}
	return tx, nil
}

// GetMerchant looks up a merchant by ID. Returns core.ErrMerchantNotFound
// when no row exists.
func (r *SQLiteRepository) GetMerchant(ctx context.Context, id string) (core.Merchant, error) {
	var m core.Merchant
	err := r.db.QueryRowContext(ctx,
		"SELECT id, category FROM merchants WHERE id = ?", id,
	).Scan(&m.ID, &m.Category)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Merchant{}, fmt.Errorf("merchant %q: %w", id, core.ErrMerchantNotFound)
	}
	if err != nil {
		return core.Merchant{}, fmt.Errorf("get merchant %q: %w", id, wrapStoreErr(err))
	}
	return m, nil
}

// MerchantExists reports whether a merchant row exists for the given ID.
func (r *SQLiteRepository) MerchantExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM merchants WHERE id = ?", id,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check merchant %q: %w", id, wrapStoreErr(err))
	}
	return true, nil
}

// BulkInsertMerchants loads merchant reference data inside one transaction.
// Existing rows with the same ID are replaced; the loader is the only writer
// of this table.
func (r *SQLiteRepository) BulkInsertMerchants(ctx context.Context, merchants []core.Merchant) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin merchants load: %w", wrapStoreErr(err))
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.PrepareContext(ctx,
		"INSERT OR REPLACE INTO merchants (id, category) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("prepare merchants insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range merchants {
		if _, err := stmt.ExecContext(ctx, m.ID, m.Category); err != nil {
			return fmt.Errorf("insert merchant %q: %w", m.ID, err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit merchants load: %w", err)
	}

	slog.InfoContext(ctx, "Merchants loaded", "count", len(merchants))
	return nil
}

// BulkInsertTransactions loads historical ledger rows inside one transaction.
// Unlike AppendTransaction, loaded rows keep the date from the source data
// and are marked already mirrored (they predate the audit mirror).
func (r *SQLiteRepository) BulkInsertTransactions(ctx context.Context, txs []core.Transaction) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transactions load: %w", wrapStoreErr(err))
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.PrepareContext(ctx,
		`INSERT INTO transactions (customer_id, merchant_id, amount_cents, is_card, date, mirrored_at)
		 VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`)
	if err != nil {
		return fmt.Errorf("prepare transactions insert: %w", err)
	}
	defer stmt.Close()

	for i, tx := range txs {
		_, err := stmt.ExecContext(ctx,
			tx.CustomerID, tx.MerchantID, tx.Amount.Cents, boolToInt(tx.IsCard), tx.Date.String())
		if err != nil {
			return fmt.Errorf("insert transaction row %d: %w", i, err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit transactions load: %w", err)
	}

	slog.InfoContext(ctx, "Transactions loaded", "count", len(txs))
	return nil
}

// PendingMirrorTransaction is the minimal row state the mirror worker needs.
type PendingMirrorTransaction struct {
	ID        int64
	LastError string
}

// PendingMirror returns up to limit transactions that have not been mirrored
// to the audit sheet yet, oldest first.
func (r *SQLiteRepository) PendingMirror(ctx context.Context, limit int) ([]PendingMirrorTransaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, mirror_error FROM transactions
		 WHERE mirrored_at IS NULL
		 ORDER BY id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending mirror: %w", wrapStoreErr(err))
	}
	defer rows.Close()

	var pending []PendingMirrorTransaction
	for rows.Next() {
		var p PendingMirrorTransaction
		if err := rows.Scan(&p.ID, &p.LastError); err != nil {
			return nil, fmt.Errorf("scan pending mirror row: %w", err)
		}
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending mirror rows: %w", err)
	}
	return pending, nil
}

// MarkMirrored records a successful mirror of a ledger row.
func (r *SQLiteRepository) MarkMirrored(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE transactions SET mirrored_at = ?, mirror_error = '' WHERE id = ?",
		time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("mark transaction %d mirrored: %w", id, wrapStoreErr(err))
	}
	return nil
}

// MarkMirrorError records a failed mirror attempt without consuming the row;
// the worker's backup scan will retry it.
func (r *SQLiteRepository) MarkMirrorError(ctx context.Context, id int64, cause string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE transactions SET mirror_error = ? WHERE id = ?", cause, id)
	if err != nil {
		return fmt.Errorf("mark transaction %d mirror error: %w", id, wrapStoreErr(err))
	}
	return nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// wrapStoreErr tags connection-level failures as ErrStoreUnavailable so
// callers can classify them without inspecting driver error strings.
func wrapStoreErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}
	return err
}
