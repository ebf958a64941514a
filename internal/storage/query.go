package storage

import (
	"strings"

	"neoledger/internal/core"
)

// InsightFilter is the storage-level form of an insights request. The service
// layer resolves the caller's relative lookback window into absolute dates
// before it reaches the store, so filters are reproducible in isolation.
type InsightFilter struct {
	CustomerID string
	Until      core.Date  // inclusive upper bound, normally "today"
	Since      *core.Date // inclusive lower bound; nil means full history
	Limit      *int       // max result rows; nil means unbounded
}

// buildInsightQuery translates a filter into a parameterized SQL statement.
// Filter values only ever appear as bind arguments, never in the SQL text.
//
// Ties on total spend are broken by category name ascending so that repeated
// queries return rows in a deterministic order.
func buildInsightQuery(f InsightFilter) (string, []any) {
	var b strings.Builder
	args := make([]any, 0, 4)

	b.WriteString(`SELECT merchants.category, SUM(transactions.amount_cents) AS total_spent
FROM transactions
JOIN merchants ON transactions.merchant_id = merchants.id
WHERE transactions.customer_id = ?
AND transactions.is_card = 1
AND transactions.date <= ?`)
	args = append(args, f.CustomerID, f.Until.String())

	if f.Since != nil {
		b.WriteString("\nAND transactions.date >= ?")
		args = append(args, f.Since.String())
	}

	b.WriteString("\nGROUP BY merchants.category\nORDER BY total_spent DESC, merchants.category ASC")

	if f.Limit != nil {
		b.WriteString("\nLIMIT ?")
		args = append(args, *f.Limit)
	}

	return b.String(), args
}
