// Package loader seeds the ledger database from CSV exports.
package loader

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"neoledger/internal/core"
	"neoledger/internal/storage"
)

// Store is the persistence surface the loader needs.
type Store interface {
	BulkInsertMerchants(ctx context.Context, merchants []core.Merchant) error
	BulkInsertTransactions(ctx context.Context, txs []core.Transaction) error
}

var _ Store = (*storage.SQLiteRepository)(nil)

// ParseMerchants reads a merchant CSV with header columns id and category.
func ParseMerchants(r io.Reader) ([]core.Merchant, error) {
	records, header, err := readAll(r)
	if err != nil {
		return nil, err
	}

	idCol, err := columnIndex(header, "id")
	if err != nil {
		return nil, err
	}
	categoryCol, err := columnIndex(header, "category")
	if err != nil {
		return nil, err
	}

	merchants := make([]core.Merchant, 0, len(records))
	for i, record := range records {
		m := core.Merchant{
			ID:       strings.TrimSpace(record[idCol]),
			Category: strings.TrimSpace(record[categoryCol]),
		}
		if m.ID == "" {
			return nil, fmt.Errorf("row %d: empty merchant id", i+2)
		}
		if m.Category == "" {
			return nil, fmt.Errorf("row %d: empty category for merchant %q", i+2, m.ID)
		}
		merchants = append(merchants, m)
	}
	return merchants, nil
}

// ParseTransactions reads a transaction CSV with header columns customer_id,
// merchant_id, amount_cents, is_card, and date.
func ParseTransactions(r io.Reader) ([]core.Transaction, error) {
	records, header, err := readAll(r)
	if err != nil {
		return nil, err
	}

	cols := make(map[string]int, 5)
	for _, name := range []string{"customer_id", "merchant_id", "amount_cents", "is_card", "date"} {
		idx, err := columnIndex(header, name)
		if err != nil {
			return nil, err
		}
		cols[name] = idx
	}

	txs := make([]core.Transaction, 0, len(records))
	for i, record := range records {
		amount, err := strconv.ParseInt(strings.TrimSpace(record[cols["amount_cents"]]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid amount_cents %q", i+2, record[cols["amount_cents"]])
		}

		isCard, err := parseBool(record[cols["is_card"]])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}

		date, err := core.ParseDate(strings.TrimSpace(record[cols["date"]]))
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid date %q", i+2, record[cols["date"]])
		}

		tx := core.Transaction{
			CustomerID: strings.TrimSpace(record[cols["customer_id"]]),
			MerchantID: strings.TrimSpace(record[cols["merchant_id"]]),
			Amount:     core.Money{Cents: amount},
			IsCard:     isCard,
			Date:       date,
		}
		if err := tx.Validate(); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// Load parses both CSV files concurrently and inserts merchants before
// transactions so the foreign key constraint holds.
func Load(ctx context.Context, store Store, merchantsPath, transactionsPath string) error {
	var (
		merchants []core.Merchant
		txs       []core.Transaction
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		merchants, err = parseFile(gctx, merchantsPath, ParseMerchants)
		return err
	})
	g.Go(func() error {
		var err error
		txs, err = parseFile(gctx, transactionsPath, ParseTransactions)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if err := store.BulkInsertMerchants(ctx, merchants); err != nil {
		return fmt.Errorf("insert merchants: %w", err)
	}
	if err := store.BulkInsertTransactions(ctx, txs); err != nil {
		return fmt.Errorf("insert transactions: %w", err)
	}

	slog.InfoContext(ctx, "Loaded ledger data",
		"merchants", len(merchants),
		"transactions", len(txs))

	return nil
}

func parseFile[T any](ctx context.Context, path string, parse func(io.Reader) ([]T, error)) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	out, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return out, nil
}

func readAll(r io.Reader) ([][]string, []string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("empty CSV")
	}
	return rows[1:], rows[0], nil
}

func columnIndex(header []string, name string) (int, error) {
	for i, col := range header {
		if strings.EqualFold(strings.TrimSpace(col), name) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("missing column %q", name)
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes":
		return true, nil
	case "0", "false", "no", "":
		return false, nil
	default:
		return false, fmt.Errorf("invalid is_card value %q", s)
	}
}
