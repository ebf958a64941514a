package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"neoledger/internal/core"
	"neoledger/internal/policy"
	"neoledger/internal/storage"
)

// Store is the persistence surface the ledger service needs.
type Store interface {
	InsightsByCategory(ctx context.Context, filter storage.InsightFilter) ([]core.CategoryInsight, error)
	AppendTransaction(ctx context.Context, tx core.Transaction) (int64, error)
	MerchantExists(ctx context.Context, merchantID string) (bool, error)
}

// EventPublisher announces appended transactions to downstream consumers.
type EventPublisher interface {
	PublishTransactionRecorded(ctx context.Context, id int64) error
}

// LedgerService coordinates spending insights and transaction recording.
type LedgerService struct {
	store     Store
	budget    policy.Budget
	publisher EventPublisher
	now       func() time.Time
}

func NewLedgerService(store Store, budget policy.Budget, publisher EventPublisher) *LedgerService {
	if budget == nil {
		budget = policy.AcceptAll{}
	}
	return &LedgerService{
		store:     store,
		budget:    budget,
		publisher: publisher,
		now:       time.Now,
	}
}

// WithClock overrides the service clock. Intended for tests.
func (s *LedgerService) WithClock(now func() time.Time) *LedgerService {
	s.now = now
	return s
}

// Today returns the current date on the service clock. Callers that key
// derived state on the insight window must use this date, not wall time.
func (s *LedgerService) Today() core.Date {
	return core.DateOf(s.now())
}

// Insights returns per-category card spending for a customer, highest total
// first with ties broken by category name. The window runs from today minus
// DaysAgo through today inclusive; without DaysAgo the full history counts.
func (s *LedgerService) Insights(ctx context.Context, query core.InsightQuery) ([]core.CategoryInsight, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidArgument, err)
	}

	today := core.DateOf(s.now())
	filter := storage.InsightFilter{
		CustomerID: query.CustomerID,
		Until:      today,
		Limit:      query.TopN,
	}
	if query.DaysAgo != nil {
		since := today.AddDays(-*query.DaysAgo)
		filter.Since = &since
	}

	insights, err := s.store.InsightsByCategory(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("load insights: %w", err)
	}
	return insights, nil
}

// RecordResult is the acknowledgement for a recorded transaction.
type RecordResult struct {
	ID   int64
	Date core.Date
}

// Record validates and appends a transaction dated today. The merchant must
// already exist and the budget policy must accept the amount. Event publish
// failures are logged, never surfaced: the row is already durable.
func (s *LedgerService) Record(ctx context.Context, tx core.Transaction) (RecordResult, error) {
	tx.Date = core.DateOf(s.now())

	if err := tx.Validate(); err != nil {
		return RecordResult{}, fmt.Errorf("%w: %w", core.ErrInvalidArgument, err)
	}

	exists, err := s.store.MerchantExists(ctx, tx.MerchantID)
	if err != nil {
		return RecordResult{}, fmt.Errorf("check merchant: %w", err)
	}
	if !exists {
		return RecordResult{}, fmt.Errorf("%w: %q", core.ErrMerchantNotFound, tx.MerchantID)
	}

	if err := s.budget.Check(tx); err != nil {
		return RecordResult{}, err
	}

	id, err := s.store.AppendTransaction(ctx, tx)
	if err != nil {
		return RecordResult{}, fmt.Errorf("append transaction: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishTransactionRecorded(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Failed to publish transaction event",
				"error", err,
				"id", id)
		}
	}

	slog.InfoContext(ctx, "Recorded transaction",
		"id", id,
		"customer_id", tx.CustomerID,
		"merchant_id", tx.MerchantID,
		"amount_cents", tx.Amount.Cents,
		"is_card", tx.IsCard)

	return RecordResult{ID: id, Date: tx.Date}, nil
}
