package transaction

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Type represents the direction of a transaction on the statement.
type Type string

const (
	TypeDebit  Type = "debit"
	TypeCredit Type = "credit"
)

// SubscriptionStatus is the lifecycle of the recurring-charge classification
// attached to a transaction. Empty means the transaction was never classified.
type SubscriptionStatus string

const (
	SubscriptionPredicted   SubscriptionStatus = "predicted"
	SubscriptionConfirmed   SubscriptionStatus = "confirmed"
	SubscriptionRejected    SubscriptionStatus = "rejected"
	SubscriptionNeedsReview SubscriptionStatus = "needs_review"
)

// Finalized reports whether a human decision has been recorded; finalized
// classifications are never overwritten by the classifier.
func (s SubscriptionStatus) Finalized() bool {
	return s == SubscriptionConfirmed || s == SubscriptionRejected
}

// Category is the spending category assigned during statement extraction.
type Category string

const (
	CategoryIncome        Category = "income"
	CategoryCashTransfer  Category = "cash_transfer"
	CategoryHousing       Category = "housing"
	CategoryTransport     Category = "transportation"
	CategoryFoodAndDining Category = "food_and_dining_out"
	CategoryEntertainment Category = "entertainment"
	CategoryHealthcare    Category = "healthcare"
	CategoryEducation     Category = "education"
	CategoryUtilities     Category = "utilities"
	CategoryGroceries     Category = "groceries"
	CategoryInvestments   Category = "investments_and_savings"
	CategoryTechnology    Category = "technology_and_electronics"
	CategorySport         Category = "sport_and_activity"
	CategorySubscriptions Category = "subscriptions_and_memberships"
	CategoryOther         Category = "other"
)

// Categories lists every category the extractor may assign.
var Categories = []Category{
	CategoryIncome,
	CategoryCashTransfer,
	CategoryHousing,
	CategoryTransport,
	CategoryFoodAndDining,
	CategoryEntertainment,
	CategoryHealthcare,
	CategoryEducation,
	CategoryUtilities,
	CategoryGroceries,
	CategoryInvestments,
	CategoryTechnology,
	CategorySport,
	CategorySubscriptions,
	CategoryOther,
}

// NormalizeCategory maps an arbitrary category string onto the closed set,
// falling back to "other" for anything unknown.
func NormalizeCategory(raw string) Category {
	for _, c := range Categories {
		if string(c) == raw {
			return c
		}
	}

	return CategoryOther
}

var ErrNotFound = errors.New("transaction not found")

// Transaction is one extracted statement line. The ID is derived from the
// source upload as "<file_id>_<index>" so re-extraction of the same file is
// idempotent.
type Transaction struct {
	ID              string
	UserID          int64
	FileID          string
	Date            time.Time
	Year            int
	Month           int
	Day             int
	Description     string
	MerchantName    string
	Amount          decimal.Decimal
	Type            Type
	Balance         *decimal.Decimal
	ReferenceNumber string
	TransactionCode string
	Category        Category
	Currency        string

	IsSubscription          bool
	SubscriptionStatus      SubscriptionStatus
	SubscriptionConfidence  *float64
	SubscriptionMerchantKey string
	SubscriptionName        string
	SubscriptionReasonCodes []string
	SubscriptionUpdatedAt   *time.Time

	CreatedAt time.Time
}
