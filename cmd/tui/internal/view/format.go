package view

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// FormatAmount renders a monetary amount with its currency code.
func FormatAmount(amount decimal.Decimal, currency string) string {
	if currency == "" {
		currency = "EUR"
	}

	return fmt.Sprintf("%s %s", amount.StringFixed(2), currency)
}

// ConfidenceBadge maps a classifier confidence onto the dashboard's
// three-step scale.
func ConfidenceBadge(confidence float64) string {
	switch {
	case confidence >= 0.8:
		return "high"
	case confidence >= 0.5:
		return "med"
	}

	return "low"
}
