package core

import (
	"errors"
	"strings"
	"time"
)

type (
	// Date is a calendar date; the time-of-day component is always midnight UTC.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Merchant is immutable reference data loaded at setup time.
	Merchant struct {
		ID       string
		Category string
	}

	// Transaction is one ledger row. Rows are append-only: the service never
	// updates or deletes them.
	Transaction struct {
		ID         int64 // database ID, zero before the row is stored
		CustomerID string
		MerchantID string
		Amount     Money
		IsCard     bool
		Date       Date
	}

	// CategoryInsight is one row of an insight result: total card spend for a
	// single merchant category.
	CategoryInsight struct {
		Category string `json:"category"`
		Amount   int64  `json:"amount"`
	}

	// InsightQuery carries the validated parameters of an insights request.
	// TopN and DaysAgo stay nil when the caller did not provide them.
	InsightQuery struct {
		CustomerID string
		TopN       *int
		DaysAgo    *int
	}
)

var (
	ErrEmptyCustomer  = errors.New("empty customer id")
	ErrEmptyMerchant  = errors.New("empty merchant id")
	ErrNegativeAmount = errors.New("negative amount")
	ErrInvalidTopN    = errors.New("top_n must be positive")
	ErrInvalidDaysAgo = errors.New("days_ago must be non-negative")
)

// NewDate builds a Date at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// AddDays returns the date shifted by n calendar days (n may be negative).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// String formats the date as YYYY-MM-DD, the ledger's storage form.
func (d Date) String() string {
	return d.Time.Format("2006-01-02")
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrNegativeAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.CustomerID) == "" {
		return ErrEmptyCustomer
	}
	if strings.TrimSpace(t.MerchantID) == "" {
		return ErrEmptyMerchant
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	return nil
}

func (q InsightQuery) Validate() error {
	if strings.TrimSpace(q.CustomerID) == "" {
		return ErrEmptyCustomer
	}
	if q.TopN != nil && *q.TopN <= 0 {
		return ErrInvalidTopN
	}
	if q.DaysAgo != nil && *q.DaysAgo < 0 {
		return ErrInvalidDaysAgo
	}
	return nil
}
