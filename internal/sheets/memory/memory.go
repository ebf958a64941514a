package memory

import (
	"context"
	"fmt"
	"sync"

	"neoledger/internal/core"
	ports "neoledger/internal/sheets"
)

// Writer is an in-memory LedgerWriter for development and tests.
type Writer struct {
	mu   sync.Mutex
	Rows []core.Transaction
	Err  error
}

var _ ports.LedgerWriter = (*Writer)(nil)

func New() *Writer {
	return &Writer{}
}

func (w *Writer) Append(ctx context.Context, tx core.Transaction) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.Err != nil {
		return "", w.Err
	}
	w.Rows = append(w.Rows, tx)
	return fmt.Sprintf("memory!A%d", len(w.Rows)), nil
}
