// Package policy holds the pluggable validation steps applied to a
// transaction before it is appended to the ledger.
package policy

import (
	"fmt"

	"neoledger/internal/core"
)

// Budget decides whether a single transaction is acceptable. Implementations
// must be side-effect free; the recorder runs them before touching the store.
type Budget interface {
	Check(tx core.Transaction) error
}

// AcceptAll is the default policy: no per-transaction ceiling.
type AcceptAll struct{}

func (AcceptAll) Check(core.Transaction) error { return nil }

// MaxPerTransaction rejects transactions whose amount exceeds a fixed
// ceiling in cents.
type MaxPerTransaction struct {
	LimitCents int64
}

func (p MaxPerTransaction) Check(tx core.Transaction) error {
	if tx.Amount.Cents > p.LimitCents {
		return fmt.Errorf("%w: amount %d exceeds limit %d",
			core.ErrLimitExceeded, tx.Amount.Cents, p.LimitCents)
	}
	return nil
}

// FromLimit returns the policy for a configured limit: zero or negative
// means the limit is disabled and every transaction is accepted.
func FromLimit(limitCents int64) Budget {
	if limitCents <= 0 {
		return AcceptAll{}
	}
	return MaxPerTransaction{LimitCents: limitCents}
}
