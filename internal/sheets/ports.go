package sheets

import (
	"context"

	"neoledger/internal/core"
)

// LedgerWriter appends a recorded transaction to an external audit sheet.
type LedgerWriter interface {
	Append(ctx context.Context, tx core.Transaction) (rowRef string, err error)
}
