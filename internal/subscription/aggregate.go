package subscription

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/clairehq/claire/internal/transaction"
)

// BuildAggregates rolls subscription transactions up per merchant. Rejected
// classifications never reach this function; confirmed status wins over
// predicted when a merchant has both.
func BuildAggregates(txs []*transaction.Transaction) []Aggregate {
	type group struct {
		txs []*transaction.Transaction
	}

	groups := map[string]*group{}

	for _, tx := range txs {
		key := tx.SubscriptionMerchantKey
		if key == "" {
			key = fallbackKey(tx)
		}

		g, ok := groups[key]
		if !ok {
			g = &group{}
			groups[key] = g
		}

		g.txs = append(g.txs, tx)
	}

	aggregates := make([]Aggregate, 0, len(groups))

	for key, g := range groups {
		aggregates = append(aggregates, buildAggregate(key, g.txs))
	}

	sort.Slice(aggregates, func(i, j int) bool {
		return aggregates[i].AverageMonthlyAmount.GreaterThan(aggregates[j].AverageMonthlyAmount)
	})

	return aggregates
}

func buildAggregate(key string, txs []*transaction.Transaction) Aggregate {
	agg := Aggregate{
		MerchantKey:      key,
		Status:           transaction.SubscriptionPredicted,
		TransactionCount: len(txs),
	}

	total := decimal.Zero
	confidenceSum := 0.0
	confidenceCount := 0
	months := map[string]struct{}{}
	categories := map[transaction.Category]int{}

	for _, tx := range txs {
		total = total.Add(tx.Amount)
		months[fmt.Sprintf("%04d-%02d", tx.Year, tx.Month)] = struct{}{}
		categories[tx.Category]++

		if tx.SubscriptionConfidence != nil {
			confidenceSum += *tx.SubscriptionConfidence
			confidenceCount++
		}

		if tx.SubscriptionStatus == transaction.SubscriptionConfirmed {
			agg.Status = transaction.SubscriptionConfirmed
		}

		if agg.Name == "" {
			agg.Name = displayName(tx)
		}

		if agg.Currency == "" {
			agg.Currency = tx.Currency
		}

		if tx.Date.After(agg.LastChargedAt) {
			agg.LastChargedAt = tx.Date
		}
	}

	agg.MonthCount = len(months)
	if agg.MonthCount > 0 {
		agg.AverageMonthlyAmount = total.Div(decimal.NewFromInt(int64(agg.MonthCount))).Round(2)
	}

	if confidenceCount > 0 {
		agg.AverageConfidence = confidenceSum / float64(confidenceCount)
	}

	best := 0
	for cat, n := range categories {
		if n > best || (n == best && string(cat) < string(agg.Category)) {
			agg.Category = cat
			best = n
		}
	}

	return agg
}

func displayName(tx *transaction.Transaction) string {
	switch {
	case tx.SubscriptionName != "":
		return tx.SubscriptionName
	case tx.MerchantName != "":
		return tx.MerchantName
	default:
		return tx.Description
	}
}

func fallbackKey(tx *transaction.Transaction) string {
	name := tx.MerchantName
	if name == "" {
		name = tx.Description
	}

	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}
