package subscription_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clairehq/claire/internal/subscription"
	"github.com/clairehq/claire/internal/transaction"
)

func subTx(id, merchantKey, name string, amount float64, year, month int, status transaction.SubscriptionStatus, confidence float64) *transaction.Transaction {
	return &transaction.Transaction{
		ID:                      id,
		Date:                    time.Date(year, time.Month(month), 15, 0, 0, 0, 0, time.UTC),
		Year:                    year,
		Month:                   month,
		Amount:                  decimal.NewFromFloat(amount),
		Type:                    transaction.TypeDebit,
		Category:                transaction.CategorySubscriptions,
		Currency:                "EUR",
		IsSubscription:          true,
		SubscriptionStatus:      status,
		SubscriptionConfidence:  &confidence,
		SubscriptionMerchantKey: merchantKey,
		SubscriptionName:        name,
	}
}

func TestBuildAggregates(t *testing.T) {
	txs := []*transaction.Transaction{
		subTx("t1", "netflix", "Netflix", 12.99, 2025, 4, transaction.SubscriptionConfirmed, 0.95),
		subTx("t2", "netflix", "Netflix", 12.99, 2025, 5, transaction.SubscriptionPredicted, 0.90),
		subTx("t3", "netflix", "Netflix", 12.99, 2025, 6, transaction.SubscriptionPredicted, 0.85),
		subTx("t4", "spotify", "Spotify", 9.99, 2025, 6, transaction.SubscriptionPredicted, 0.80),
	}

	aggs := subscription.BuildAggregates(txs)
	require.Len(t, aggs, 2)

	// Sorted by average monthly amount, largest first.
	netflix := aggs[0]
	assert.Equal(t, "netflix", netflix.MerchantKey)
	assert.Equal(t, "Netflix", netflix.Name)
	assert.Equal(t, 3, netflix.TransactionCount)
	assert.Equal(t, 3, netflix.MonthCount)
	assert.Equal(t, "12.99", netflix.AverageMonthlyAmount.String())
	assert.InDelta(t, 0.9, netflix.AverageConfidence, 0.001)
	// Any user confirmation promotes the whole merchant.
	assert.Equal(t, transaction.SubscriptionConfirmed, netflix.Status)
	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), netflix.LastChargedAt)

	spotify := aggs[1]
	assert.Equal(t, transaction.SubscriptionPredicted, spotify.Status)
	assert.Equal(t, "9.99", spotify.AverageMonthlyAmount.String())
}

func TestBuildAggregates_TwoChargesSameMonth(t *testing.T) {
	txs := []*transaction.Transaction{
		subTx("t1", "gym", "City Gym", 30, 2025, 5, transaction.SubscriptionPredicted, 0.7),
		subTx("t2", "gym", "City Gym", 30, 2025, 5, transaction.SubscriptionPredicted, 0.7),
	}

	aggs := subscription.BuildAggregates(txs)
	require.Len(t, aggs, 1)
	assert.Equal(t, 2, aggs[0].TransactionCount)
	assert.Equal(t, 1, aggs[0].MonthCount)
	assert.Equal(t, "60", aggs[0].AverageMonthlyAmount.String())
}

func TestBuildAggregates_FallbackKeyAndName(t *testing.T) {
	tx := &transaction.Transaction{
		ID:             "t1",
		Date:           time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Year:           2025,
		Month:          6,
		Description:    "ICLOUD STORAGE",
		MerchantName:   "Apple Services",
		Amount:         decimal.NewFromFloat(2.99),
		Type:           transaction.TypeDebit,
		IsSubscription: true,
	}

	aggs := subscription.BuildAggregates([]*transaction.Transaction{tx})
	require.Len(t, aggs, 1)
	assert.Equal(t, "apple_services", aggs[0].MerchantKey)
	assert.Equal(t, "Apple Services", aggs[0].Name)
}

func TestBuildAggregates_Empty(t *testing.T) {
	assert.Empty(t, subscription.BuildAggregates(nil))
}
