// Package subscription finds recurring charges among a user's transactions
// and manages the human review loop over the model's predictions.
package subscription

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/clairehq/claire/internal/transaction"
)

var (
	ErrInvalidRange     = errors.New("start date is after end date")
	ErrRangeTooLarge    = errors.New("date range exceeds one year")
	ErrInvalidDecision  = errors.New("decision must be confirmed or rejected")
	ErrNotDebit         = errors.New("only debits can be subscriptions")
	ErrAlreadyFinalized = errors.New("subscription status is already finalized")
)

// Decision is a user's verdict on a predicted subscription.
type Decision string

const (
	DecisionConfirmed Decision = "confirmed"
	DecisionRejected  Decision = "rejected"
)

// Reason codes recorded on a transaction's classification trail.
const (
	ReasonUserConfirmed       = "user_confirmed"
	ReasonUserRejected        = "user_rejected"
	ReasonBatchFailed         = "batch_failed"
	ReasonMissingFromResponse = "missing_from_response"
)

// Result is the model's verdict for one transaction.
type Result struct {
	TransactionID    string   `json:"transaction_id"`
	IsSubscription   bool     `json:"is_subscription"`
	Confidence       float64  `json:"confidence"`
	MerchantKey      string   `json:"merchant_key"`
	SubscriptionName string   `json:"subscription_name"`
	ReasonCodes      []string `json:"reason_codes"`
}

// Summary reports what one classification run did.
type Summary struct {
	Processed          int
	SubscriptionsFound int
	NeedsReview        int
}

// Update is one classification write against a transaction.
type Update struct {
	TransactionID    string
	IsSubscription   bool
	Status           transaction.SubscriptionStatus
	Confidence       *float64
	MerchantKey      string
	SubscriptionName string
	ReasonCodes      []string
	UpdatedAt        time.Time
}

// Aggregate is one recurring merchant rolled up across its charges.
type Aggregate struct {
	MerchantKey          string
	Name                 string
	Category             transaction.Category
	Status               transaction.SubscriptionStatus
	AverageMonthlyAmount decimal.Decimal
	AverageConfidence    float64
	TransactionCount     int
	MonthCount           int
	LastChargedAt        time.Time
	Currency             string
}
