// Package query serves the transaction query surface: filtered listings,
// the sankey cash-flow diagram, and the subscription endpoints.
package query

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/clairehq/claire/internal/auth"
	"github.com/clairehq/claire/internal/http/respond"
	"github.com/clairehq/claire/internal/subscription"
	"github.com/clairehq/claire/internal/transaction"
)

type Handler struct {
	txs  *transaction.Service
	subs *subscription.Service
}

func NewHandler(txs *transaction.Service, subs *subscription.Service) *Handler {
	return &Handler{txs: txs, subs: subs}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/transactions", h.list)
	r.Get("/transactions/sankey_diagram", h.sankey)
	r.Get("/transactions/subscriptions", h.subscriptions)
	r.Get("/transactions/subscriptions/aggregated", h.aggregated)
	r.Get("/transactions/subscriptions/needs-review", h.needsReview)
	r.Post("/transactions/subscriptions/classify", h.classify)
	r.Post("/transactions/subscriptions/review", h.review)
}

type transactionResponse struct {
	ID                      string           `json:"id"`
	UserID                  int64            `json:"user_id"`
	FileID                  string           `json:"file_id"`
	TransactionDate         string           `json:"transaction_date"`
	TransactionYear         int              `json:"transaction_year"`
	TransactionMonth        int              `json:"transaction_month"`
	TransactionDay          int              `json:"transaction_day"`
	Description             string           `json:"description"`
	MerchantName            string           `json:"merchant_name,omitempty"`
	Amount                  decimal.Decimal  `json:"amount"`
	TransactionType         transaction.Type `json:"transaction_type"`
	Balance                 *decimal.Decimal `json:"balance,omitempty"`
	ReferenceNumber         string           `json:"reference_number,omitempty"`
	TransactionCode         string           `json:"transaction_code,omitempty"`
	Category                string           `json:"category,omitempty"`
	Currency                string           `json:"currency"`
	IsSubscription          bool             `json:"is_subscription"`
	SubscriptionStatus      string           `json:"subscription_status,omitempty"`
	SubscriptionConfidence  *float64         `json:"subscription_confidence,omitempty"`
	SubscriptionName        string           `json:"subscription_name,omitempty"`
	SubscriptionReasonCodes []string         `json:"subscription_reason_codes,omitempty"`
	CreatedAt               time.Time        `json:"created_at"`
}

func toTransactionResponse(tx *transaction.Transaction) transactionResponse {
	return transactionResponse{
		ID:                      tx.ID,
		UserID:                  tx.UserID,
		FileID:                  tx.FileID,
		TransactionDate:         tx.Date.Format(time.DateOnly),
		TransactionYear:         tx.Year,
		TransactionMonth:        tx.Month,
		TransactionDay:          tx.Day,
		Description:             tx.Description,
		MerchantName:            tx.MerchantName,
		Amount:                  tx.Amount,
		TransactionType:         tx.Type,
		Balance:                 tx.Balance,
		ReferenceNumber:         tx.ReferenceNumber,
		TransactionCode:         tx.TransactionCode,
		Category:                string(tx.Category),
		Currency:                tx.Currency,
		IsSubscription:          tx.IsSubscription,
		SubscriptionStatus:      string(tx.SubscriptionStatus),
		SubscriptionConfidence:  tx.SubscriptionConfidence,
		SubscriptionName:        tx.SubscriptionName,
		SubscriptionReasonCodes: tx.SubscriptionReasonCodes,
		CreatedAt:               tx.CreatedAt,
	}
}

func toTransactionResponses(txs []*transaction.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransactionResponse(tx))
	}

	return out
}

// parseFilter builds a transaction filter from the shared query contract.
func parseFilter(r *http.Request, userID int64) (transaction.Filter, error) {
	q := r.URL.Query()

	filter := transaction.Filter{
		UserID:    &userID,
		OrderBy:   q.Get("order_by"),
		OrderDesc: true,
	}

	if v := q.Get("order_desc"); v != "" {
		desc, err := strconv.ParseBool(v)
		if err != nil {
			return filter, errors.New("order_desc must be a boolean")
		}

		filter.OrderDesc = desc
	}

	if v := q.Get("file_id"); v != "" {
		filter.FileID = &v
	}

	for name, dst := range map[string]**time.Time{
		"start_date": &filter.StartDate,
		"end_date":   &filter.EndDate,
	} {
		if v := q.Get(name); v != "" {
			t, err := time.Parse(time.DateOnly, v)
			if err != nil {
				return filter, errors.New(name + " must be formatted YYYY-MM-DD")
			}

			*dst = &t
		}
	}

	if v := q.Get("merchant_name"); v != "" {
		filter.MerchantName = &v
	}

	if v := q.Get("transaction_type"); v != "" {
		typ := transaction.Type(v)
		if typ != transaction.TypeDebit && typ != transaction.TypeCredit {
			return filter, errors.New("transaction_type must be debit or credit")
		}

		filter.Type = &typ
	}

	if v := q.Get("category"); v != "" {
		cat := transaction.Category(v)
		filter.Category = &cat
	}

	for name, dst := range map[string]**decimal.Decimal{
		"min_amount": &filter.MinAmount,
		"max_amount": &filter.MaxAmount,
	} {
		if v := q.Get(name); v != "" {
			d, err := decimal.NewFromString(v)
			if err != nil {
				return filter, errors.New(name + " must be a number")
			}

			*dst = &d
		}
	}

	if v := q.Get("transaction_year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			return filter, errors.New("transaction_year must be an integer")
		}

		filter.Year = &year
	}

	if v := q.Get("transaction_month"); v != "" {
		month, err := strconv.Atoi(v)
		if err != nil || month < 1 || month > 12 {
			return filter, errors.New("transaction_month must be between 1 and 12")
		}

		filter.Month = &month
	}

	if v := q.Get("currency"); v != "" {
		filter.Currency = &v
	}

	if v := q.Get("description"); v != "" {
		filter.Description = &v
	}

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 || limit > 1000 {
			return filter, errors.New("limit must be between 1 and 1000")
		}

		filter.Limit = &limit
	}

	if v := q.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			return filter, errors.New("offset must be a non-negative integer")
		}

		filter.Offset = offset
	}

	return filter, nil
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())

	filter, err := parseFilter(r, u.ID)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	txs, err := h.txs.List(r.Context(), filter)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to query transactions")
		return
	}

	respond.JSON(w, http.StatusOK, toTransactionResponses(txs))
}

func (h *Handler) sankey(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())

	filter, err := parseFilter(r, u.ID)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := h.txs.Sankey(r.Context(), filter)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to build sankey diagram")
		return
	}

	respond.JSON(w, http.StatusOK, data)
}

func (h *Handler) subscriptions(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())

	filter, err := parseFilter(r, u.ID)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	cat := transaction.CategorySubscriptions
	filter.Category = &cat

	txs, err := h.txs.List(r.Context(), filter)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to query subscriptions")
		return
	}

	respond.JSON(w, http.StatusOK, toTransactionResponses(txs))
}

type aggregateResponse struct {
	MerchantKey          string          `json:"merchant_key"`
	Name                 string          `json:"name"`
	Category             string          `json:"category"`
	Status               string          `json:"status"`
	AverageMonthlyAmount decimal.Decimal `json:"average_monthly_amount"`
	ConfidenceAvg        float64         `json:"confidence_avg"`
	TransactionCount     int             `json:"transaction_count"`
	MonthCount           int             `json:"month_count"`
	LastChargedAt        string          `json:"last_charged_at"`
	Currency             string          `json:"currency"`
}

func (h *Handler) aggregated(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())

	filter, err := parseFilter(r, u.ID)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	aggs, err := h.subs.Aggregated(r.Context(), u.ID, filter.StartDate, filter.EndDate)
	if err != nil {
		if errors.Is(err, subscription.ErrInvalidRange) {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}

		respond.Error(w, http.StatusInternalServerError, "failed to aggregate subscriptions")

		return
	}

	out := make([]aggregateResponse, 0, len(aggs))
	for _, agg := range aggs {
		out = append(out, aggregateResponse{
			MerchantKey:          agg.MerchantKey,
			Name:                 agg.Name,
			Category:             string(agg.Category),
			Status:               string(agg.Status),
			AverageMonthlyAmount: agg.AverageMonthlyAmount,
			ConfidenceAvg:        agg.AverageConfidence,
			TransactionCount:     agg.TransactionCount,
			MonthCount:           agg.MonthCount,
			LastChargedAt:        agg.LastChargedAt.Format(time.DateOnly),
			Currency:             agg.Currency,
		})
	}

	respond.JSON(w, http.StatusOK, out)
}

func (h *Handler) needsReview(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())

	txs, err := h.subs.NeedsReview(r.Context(), u.ID)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to list transactions needing review")
		return
	}

	respond.JSON(w, http.StatusOK, toTransactionResponses(txs))
}

type classifyRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type classifyResponse struct {
	Processed          int `json:"processed"`
	SubscriptionsFound int `json:"subscriptions_found"`
	NeedsReview        int `json:"needs_review"`
}

func (h *Handler) classify(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())

	var req classifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	start, err := time.Parse(time.DateOnly, req.StartDate)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "start_date must be formatted YYYY-MM-DD")
		return
	}

	end, err := time.Parse(time.DateOnly, req.EndDate)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "end_date must be formatted YYYY-MM-DD")
		return
	}

	summary, err := h.subs.Classify(r.Context(), u.ID, start, end)
	if err != nil {
		switch {
		case errors.Is(err, subscription.ErrInvalidRange), errors.Is(err, subscription.ErrRangeTooLarge):
			respond.Error(w, http.StatusBadRequest, err.Error())
		default:
			respond.Error(w, http.StatusInternalServerError, "classification failed")
		}

		return
	}

	respond.JSON(w, http.StatusOK, classifyResponse{
		Processed:          summary.Processed,
		SubscriptionsFound: summary.SubscriptionsFound,
		NeedsReview:        summary.NeedsReview,
	})
}

type reviewRequest struct {
	TransactionID string `json:"transaction_id"`
	Decision      string `json:"decision"`
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())

	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tx, err := h.subs.Review(r.Context(), u.ID, req.TransactionID, subscription.Decision(req.Decision))
	if err != nil {
		switch {
		case errors.Is(err, transaction.ErrNotFound):
			respond.Error(w, http.StatusNotFound, "transaction not found")
		case errors.Is(err, subscription.ErrInvalidDecision),
			errors.Is(err, subscription.ErrNotDebit),
			errors.Is(err, subscription.ErrAlreadyFinalized):
			respond.Error(w, http.StatusBadRequest, err.Error())
		default:
			respond.Error(w, http.StatusInternalServerError, "review failed")
		}

		return
	}

	respond.JSON(w, http.StatusOK, toTransactionResponse(tx))
}
