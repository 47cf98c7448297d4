// Package statement turns uploaded bank statements into transactions. PDFs
// go through the Gemini extractor, CSV exports through the profile-based
// parser.
package statement

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/clairehq/claire/internal/transaction"
)

const defaultCurrency = "EUR"

// Row is one extracted statement line, not yet tied to a user or upload.
type Row struct {
	Date            time.Time
	Description     string
	MerchantName    string
	Amount          decimal.Decimal
	Type            transaction.Type
	Balance         *decimal.Decimal
	ReferenceNumber string
	TransactionCode string
	Category        transaction.Category
	Currency        string
}

// ToTransactions binds extracted rows to an upload. IDs are the upload's
// file ID plus the row index, which makes re-processing the same file
// idempotent at the store layer.
func ToTransactions(userID int64, fileID string, rows []Row) []*transaction.Transaction {
	txs := make([]*transaction.Transaction, 0, len(rows))

	for i, row := range rows {
		category := row.Category
		if category == "" {
			category = transaction.CategoryOther
			if row.Type == transaction.TypeCredit {
				category = transaction.CategoryIncome
			}
		}

		currency := row.Currency
		if currency == "" {
			currency = defaultCurrency
		}

		txs = append(txs, &transaction.Transaction{
			ID:              fmt.Sprintf("%s_%d", fileID, i),
			UserID:          userID,
			FileID:          fileID,
			Date:            row.Date,
			Year:            row.Date.Year(),
			Month:           int(row.Date.Month()),
			Day:             row.Date.Day(),
			Description:     row.Description,
			MerchantName:    row.MerchantName,
			Amount:          row.Amount,
			Type:            row.Type,
			Balance:         row.Balance,
			ReferenceNumber: row.ReferenceNumber,
			TransactionCode: row.TransactionCode,
			Category:        category,
			Currency:        currency,
		})
	}

	return txs
}
