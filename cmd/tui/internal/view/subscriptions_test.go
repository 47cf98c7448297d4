package view

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/clairehq/claire/internal/client"
	"github.com/clairehq/claire/internal/scope"
)

func TestMonthlyTotal(t *testing.T) {
	aggs := []client.SubscriptionAggregate{
		{Name: "Netflix", AverageMonthlyAmount: decimal.NewFromFloat(12.99)},
		{Name: "Spotify", AverageMonthlyAmount: decimal.NewFromFloat(7.50)},
		{Name: "Gym", AverageMonthlyAmount: decimal.NewFromFloat(29.90)},
	}

	assert.True(t, monthlyTotal(aggs).Equal(decimal.NewFromFloat(50.39)))
	assert.True(t, monthlyTotal(nil).IsZero())
}

func TestSubscriptionsModel_StatementScopeSkipsRollups(t *testing.T) {
	m := NewSubscriptionsModel(nil, scope.ForStatement("f1"))

	assert.Nil(t, m.Init())
	assert.False(t, m.loading)
	assert.Contains(t, m.View(), "date-range scope")
}
