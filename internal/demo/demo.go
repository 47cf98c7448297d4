// Package demo ships a built-in sample statement so the app can be explored
// without uploading real banking data.
package demo

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/clairehq/claire/internal/transaction"
)

//go:embed demo_data.json
var demoData []byte

// Filename is the synthetic filename demo uploads are recorded under.
const Filename = "demo_data.json"

type row struct {
	Date                    string           `json:"date"`
	Description             string           `json:"description"`
	MerchantName            string           `json:"merchant_name"`
	Amount                  decimal.Decimal  `json:"amount"`
	Type                    string           `json:"type"`
	Category                string           `json:"category"`
	Currency                string           `json:"currency"`
	Balance                 *decimal.Decimal `json:"balance"`
	IsSubscription          bool             `json:"is_subscription"`
	SubscriptionStatus      string           `json:"subscription_status"`
	SubscriptionConfidence  *float64         `json:"subscription_confidence"`
	SubscriptionMerchantKey string           `json:"subscription_merchant_key"`
	SubscriptionName        string           `json:"subscription_name"`
}

// Raw returns the embedded dataset bytes, for storing alongside the
// synthetic upload.
func Raw() []byte {
	return demoData
}

// Transactions materializes the embedded dataset for the given user and
// file, using the same id scheme as real extraction. The second return value
// is the newest transaction date in the set.
func Transactions(userID int64, fileID string) ([]*transaction.Transaction, time.Time, error) {
	var rows []row
	if err := json.Unmarshal(demoData, &rows); err != nil {
		return nil, time.Time{}, fmt.Errorf("parsing demo data: %w", err)
	}

	txs := make([]*transaction.Transaction, 0, len(rows))

	var latest time.Time

	for idx, r := range rows {
		date, err := time.Parse(time.DateOnly, r.Date)
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("parsing demo date %q: %w", r.Date, err)
		}

		if date.After(latest) {
			latest = date
		}

		tx := &transaction.Transaction{
			ID:                      fmt.Sprintf("%s_%d", fileID, idx),
			UserID:                  userID,
			FileID:                  fileID,
			Date:                    date,
			Year:                    date.Year(),
			Month:                   int(date.Month()),
			Day:                     date.Day(),
			Description:             r.Description,
			MerchantName:            r.MerchantName,
			Amount:                  r.Amount,
			Type:                    transaction.Type(r.Type),
			Balance:                 r.Balance,
			Category:                transaction.NormalizeCategory(r.Category),
			Currency:                r.Currency,
			IsSubscription:          r.IsSubscription,
			SubscriptionConfidence:  r.SubscriptionConfidence,
			SubscriptionMerchantKey: r.SubscriptionMerchantKey,
			SubscriptionName:        r.SubscriptionName,
		}

		// Older exports used "active" for confirmed subscriptions.
		switch r.SubscriptionStatus {
		case "active":
			tx.SubscriptionStatus = transaction.SubscriptionConfirmed
		case string(transaction.SubscriptionPredicted),
			string(transaction.SubscriptionConfirmed),
			string(transaction.SubscriptionRejected),
			string(transaction.SubscriptionNeedsReview):
			tx.SubscriptionStatus = transaction.SubscriptionStatus(r.SubscriptionStatus)
		}

		txs = append(txs, tx)
	}

	return txs, latest, nil
}
