package policy

import (
	"errors"
	"testing"

	"neoledger/internal/core"
)

func TestAcceptAll(t *testing.T) {
	tx := core.Transaction{CustomerID: "C1", MerchantID: "M1", Amount: core.Money{Cents: 1 << 40}}
	if err := (AcceptAll{}).Check(tx); err != nil {
		t.Fatalf("AcceptAll rejected a transaction: %v", err)
	}
}

func TestMaxPerTransaction(t *testing.T) {
	p := MaxPerTransaction{LimitCents: 1000}

	cases := []struct {
		name   string
		cents  int64
		reject bool
	}{
		{"under limit", 999, false},
		{"at limit", 1000, false},
		{"over limit", 1001, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := p.Check(core.Transaction{Amount: core.Money{Cents: tc.cents}})
			if tc.reject != errors.Is(err, core.ErrLimitExceeded) {
				t.Fatalf("Check(%d) = %v, reject=%v", tc.cents, err, tc.reject)
			}
		})
	}
}

func TestFromLimit(t *testing.T) {
	if _, ok := FromLimit(0).(AcceptAll); !ok {
		t.Fatal("zero limit should disable the budget policy")
	}
	if _, ok := FromLimit(-5).(AcceptAll); !ok {
		t.Fatal("negative limit should disable the budget policy")
	}
	p, ok := FromLimit(1000).(MaxPerTransaction)
	if !ok || p.LimitCents != 1000 {
		t.Fatalf("FromLimit(1000) = %#v", p)
	}
}
