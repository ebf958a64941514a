package storage

import (
	"reflect"
	"strings"
	"testing"

	"neoledger/internal/core"
)

func TestBuildInsightQueryBase(t *testing.T) {
	f := InsightFilter{CustomerID: "C1", Until: core.NewDate(2024, 6, 20)}
	query, args := buildInsightQuery(f)

	if strings.Contains(query, "date >=") {
		t.Fatalf("unexpected lower bound clause in:\n%s", query)
	}
	if strings.Contains(query, "LIMIT") {
		t.Fatalf("unexpected LIMIT clause in:\n%s", query)
	}
	if !strings.Contains(query, "ORDER BY total_spent DESC, merchants.category ASC") {
		t.Fatalf("missing deterministic ordering in:\n%s", query)
	}
	want := []any{"C1", "2024-06-20"}
	if !reflect.DeepEqual(args, want) {
		t.Fatalf("args = %v, want %v", args, want)
	}
}

func TestBuildInsightQueryAllFilters(t *testing.T) {
	since := core.NewDate(2024, 6, 13)
	limit := 5
	f := InsightFilter{
		CustomerID: "C1",
		Until:      core.NewDate(2024, 6, 20),
		Since:      &since,
		Limit:      &limit,
	}
	query, args := buildInsightQuery(f)

	if !strings.Contains(query, "AND transactions.date >= ?") {
		t.Fatalf("missing lower bound clause in:\n%s", query)
	}
	if !strings.HasSuffix(query, "LIMIT ?") {
		t.Fatalf("LIMIT must be the final clause:\n%s", query)
	}
	want := []any{"C1", "2024-06-20", "2024-06-13", 5}
	if !reflect.DeepEqual(args, want) {
		t.Fatalf("args = %v, want %v", args, want)
	}
}

func TestBuildInsightQueryNoInlineValues(t *testing.T) {
	// Filter values must never leak into the SQL text.
	since := core.NewDate(2020, 1, 1)
	limit := 3
	f := InsightFilter{
		CustomerID: "C1'; DROP TABLE transactions;--",
		Until:      core.NewDate(2024, 6, 20),
		Since:      &since,
		Limit:      &limit,
	}
	query, _ := buildInsightQuery(f)
	if strings.Contains(query, "DROP TABLE") || strings.Contains(query, "2024") {
		t.Fatalf("filter value leaked into SQL text:\n%s", query)
	}
}
