package storage

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"neoledger/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedMerchants(t *testing.T, repo *SQLiteRepository) {
	t.Helper()
	err := repo.BulkInsertMerchants(context.Background(), []core.Merchant{
		{ID: "M1", Category: "Groceries"},
		{ID: "M2", Category: "Restaurants"},
		{ID: "M3", Category: "Transport"},
	})
	if err != nil {
		t.Fatalf("seed merchants: %v", err)
	}
}

func TestAppendAndGetTransaction(t *testing.T) {
	repo := newTestRepo(t)
	seedMerchants(t, repo)
	ctx := context.Background()

	tx := core.Transaction{
		CustomerID: "C1",
		MerchantID: "M1",
		Amount:     core.Money{Cents: 1200},
		IsCard:     true,
		Date:       core.NewDate(2024, 6, 20),
	}
	id, err := repo.AppendTransaction(ctx, tx)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if id == 0 {
		t.Fatal("append returned zero id")
	}

	got, err := repo.GetTransaction(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	tx.ID = id
	if !reflect.DeepEqual(got, tx) {
		t.Fatalf("round trip mismatch:\ngot  %+v\nwant %+v", got, tx)
	}
}

func TestInsightsByCategory(t *testing.T) {
	repo := newTestRepo(t)
	seedMerchants(t, repo)
	ctx := context.Background()
	today := core.NewDate(2024, 6, 20)

	rows := []core.Transaction{
		{CustomerID: "C1", MerchantID: "M1", Amount: core.Money{Cents: 500}, IsCard: true, Date: today},
		{CustomerID: "C1", MerchantID: "M1", Amount: core.Money{Cents: 300}, IsCard: true, Date: today},
		{CustomerID: "C1", MerchantID: "M2", Amount: core.Money{Cents: 400}, IsCard: true, Date: today},
		// Non-card swipe: excluded.
		{CustomerID: "C1", MerchantID: "M2", Amount: core.Money{Cents: 9999}, IsCard: false, Date: today},
		// Other customer: excluded.
		{CustomerID: "C2", MerchantID: "M1", Amount: core.Money{Cents: 7777}, IsCard: true, Date: today},
		// Outside the 7-day window used below.
		{CustomerID: "C1", MerchantID: "M3", Amount: core.Money{Cents: 600}, IsCard: true, Date: today.AddDays(-8)},
		// Future-dated row: beyond the upper bound.
		{CustomerID: "C1", MerchantID: "M3", Amount: core.Money{Cents: 600}, IsCard: true, Date: today.AddDays(1)},
	}
	for _, tx := range rows {
		if _, err := repo.AppendTransaction(ctx, tx); err != nil {
			t.Fatalf("append %+v: %v", tx, err)
		}
	}

	t.Run("full history", func(t *testing.T) {
		got, err := repo.InsightsByCategory(ctx, InsightFilter{CustomerID: "C1", Until: today})
		if err != nil {
			t.Fatalf("insights: %v", err)
		}
		want := []core.CategoryInsight{
			{Category: "Groceries", Amount: 800},
			{Category: "Transport", Amount: 600},
			{Category: "Restaurants", Amount: 400},
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("got %v, want %v", got, want)
		}
	})

	t.Run("seven day window with limit", func(t *testing.T) {
		since := today.AddDays(-7)
		limit := 1
		got, err := repo.InsightsByCategory(ctx, InsightFilter{
			CustomerID: "C1", Until: today, Since: &since, Limit: &limit,
		})
		if err != nil {
			t.Fatalf("insights: %v", err)
		}
		want := []core.CategoryInsight{{Category: "Groceries", Amount: 800}}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("got %v, want %v", got, want)
		}
	})

	t.Run("unknown customer yields empty slice", func(t *testing.T) {
		got, err := repo.InsightsByCategory(ctx, InsightFilter{CustomerID: "nobody", Until: today})
		if err != nil {
			t.Fatalf("insights: %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("expected empty result, got %v", got)
		}
		if got == nil {
			t.Fatal("expected non-nil empty slice")
		}
	})
}

func TestInsightsTieBreakByCategoryName(t *testing.T) {
	repo := newTestRepo(t)
	seedMerchants(t, repo)
	ctx := context.Background()
	today := core.NewDate(2024, 6, 20)

	for _, m := range []string{"M2", "M1"} {
		tx := core.Transaction{CustomerID: "C1", MerchantID: m, Amount: core.Money{Cents: 250}, IsCard: true, Date: today}
		if _, err := repo.AppendTransaction(ctx, tx); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := repo.InsightsByCategory(ctx, InsightFilter{CustomerID: "C1", Until: today})
	if err != nil {
		t.Fatalf("insights: %v", err)
	}
	want := []core.CategoryInsight{
		{Category: "Groceries", Amount: 250},
		{Category: "Restaurants", Amount: 250},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("tie break not alphabetical: got %v, want %v", got, want)
	}
}

func TestMerchantLookups(t *testing.T) {
	repo := newTestRepo(t)
	seedMerchants(t, repo)
	ctx := context.Background()

	m, err := repo.GetMerchant(ctx, "M1")
	if err != nil {
		t.Fatalf("get merchant: %v", err)
	}
	if m.Category != "Groceries" {
		t.Fatalf("category = %q, want Groceries", m.Category)
	}

	if _, err := repo.GetMerchant(ctx, "missing"); !errors.Is(err, core.ErrMerchantNotFound) {
		t.Fatalf("expected ErrMerchantNotFound, got %v", err)
	}

	ok, err := repo.MerchantExists(ctx, "M2")
	if err != nil || !ok {
		t.Fatalf("MerchantExists(M2) = %v, %v", ok, err)
	}
	ok, err = repo.MerchantExists(ctx, "missing")
	if err != nil || ok {
		t.Fatalf("MerchantExists(missing) = %v, %v", ok, err)
	}
}

func TestMirrorQueue(t *testing.T) {
	repo := newTestRepo(t)
	seedMerchants(t, repo)
	ctx := context.Background()
	today := core.NewDate(2024, 6, 20)

	id1, err := repo.AppendTransaction(ctx, core.Transaction{
		CustomerID: "C1", MerchantID: "M1", Amount: core.Money{Cents: 100}, IsCard: true, Date: today,
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	id2, err := repo.AppendTransaction(ctx, core.Transaction{
		CustomerID: "C1", MerchantID: "M2", Amount: core.Money{Cents: 200}, IsCard: true, Date: today,
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	pending, err := repo.PendingMirror(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != id1 || pending[1].ID != id2 {
		t.Fatalf("pending = %+v, want ids [%d %d]", pending, id1, id2)
	}

	if err := repo.MarkMirrorError(ctx, id1, "sheet offline"); err != nil {
		t.Fatalf("mark error: %v", err)
	}
	pending, err = repo.PendingMirror(ctx, 10)
	if err != nil {
		t.Fatalf("pending after error: %v", err)
	}
	if len(pending) != 2 || pending[0].LastError != "sheet offline" {
		t.Fatalf("error not recorded: %+v", pending)
	}

	if err := repo.MarkMirrored(ctx, id1); err != nil {
		t.Fatalf("mark mirrored: %v", err)
	}
	pending, err = repo.PendingMirror(ctx, 10)
	if err != nil {
		t.Fatalf("pending after mirror: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != id2 {
		t.Fatalf("pending = %+v, want only id %d", pending, id2)
	}
}

func TestBulkInsertTransactionsAlreadyMirrored(t *testing.T) {
	repo := newTestRepo(t)
	seedMerchants(t, repo)
	ctx := context.Background()

	err := repo.BulkInsertTransactions(ctx, []core.Transaction{
		{CustomerID: "C1", MerchantID: "M1", Amount: core.Money{Cents: 500}, IsCard: true, Date: core.NewDate(2024, 6, 1)},
		{CustomerID: "C2", MerchantID: "M2", Amount: core.Money{Cents: 700}, IsCard: false, Date: core.NewDate(2024, 6, 2)},
	})
	if err != nil {
		t.Fatalf("bulk insert: %v", err)
	}

	pending, err := repo.PendingMirror(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("bulk-loaded rows should not await mirroring: %+v", pending)
	}
}
