package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"neoledger/internal/core"
)

// parseInsightParams reads the insight query from the URL. customer_id is
// required; top_n and days_ago are optional integers.
func parseInsightParams(r *http.Request) (core.InsightQuery, error) {
	q := r.URL.Query()

	query := core.InsightQuery{
		CustomerID: strings.TrimSpace(q.Get("customer_id")),
	}
	if query.CustomerID == "" {
		return core.InsightQuery{}, errors.New("missing customer_id")
	}

	if v := strings.TrimSpace(q.Get("top_n")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return core.InsightQuery{}, fmt.Errorf("invalid top_n %q", v)
		}
		query.TopN = &n
	}

	if v := strings.TrimSpace(q.Get("days_ago")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return core.InsightQuery{}, fmt.Errorf("invalid days_ago %q", v)
		}
		query.DaysAgo = &n
	}

	return query, nil
}

// transactionRequest uses pointer fields so absent keys are distinguishable
// from zero values.
type transactionRequest struct {
	CustomerID  *string `json:"customer_id"`
	MerchantID  *string `json:"merchant_id"`
	AmountCents *int64  `json:"amount_cents"`
	IsCard      *bool   `json:"is_card"`
}

func parseTransactionRequest(r *http.Request) (core.Transaction, error) {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req transactionRequest
	if err := dec.Decode(&req); err != nil {
		return core.Transaction{}, fmt.Errorf("invalid JSON body: %w", err)
	}

	if req.CustomerID == nil {
		return core.Transaction{}, errors.New("missing customer_id")
	}
	if req.MerchantID == nil {
		return core.Transaction{}, errors.New("missing merchant_id")
	}
	if req.AmountCents == nil {
		return core.Transaction{}, errors.New("missing amount_cents")
	}

	tx := core.Transaction{
		CustomerID: strings.TrimSpace(*req.CustomerID),
		MerchantID: strings.TrimSpace(*req.MerchantID),
		Amount:     core.Money{Cents: *req.AmountCents},
	}
	if req.IsCard != nil {
		tx.IsCard = *req.IsCard
	}

	return tx, nil
}
