package statement_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clairehq/claire/internal/statement"
	"github.com/clairehq/claire/internal/transaction"
)

func TestToTransactions(t *testing.T) {
	rows := []statement.Row{
		{
			Date:        time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
			Description: "COMPRA CONTINENTE",
			Amount:      decimal.NewFromFloat(45.30),
			Type:        transaction.TypeDebit,
			Category:    transaction.CategoryGroceries,
			Currency:    "EUR",
		},
		{
			Date:        time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC),
			Description: "ORDENADO",
			Amount:      decimal.NewFromInt(1250),
			Type:        transaction.TypeCredit,
		},
		{
			Date:        time.Date(2025, 6, 7, 0, 0, 0, 0, time.UTC),
			Description: "MBWAY TRANSF",
			Amount:      decimal.NewFromInt(20),
			Type:        transaction.TypeDebit,
		},
	}

	txs := statement.ToTransactions(7, "file-abc", rows)
	require.Len(t, txs, 3)

	assert.Equal(t, "file-abc_0", txs[0].ID)
	assert.Equal(t, "file-abc_1", txs[1].ID)
	assert.Equal(t, int64(7), txs[0].UserID)
	assert.Equal(t, "file-abc", txs[0].FileID)
	assert.Equal(t, 2025, txs[0].Year)
	assert.Equal(t, 6, txs[0].Month)
	assert.Equal(t, 2, txs[0].Day)
	assert.Equal(t, transaction.CategoryGroceries, txs[0].Category)

	// Missing category defaults by direction, missing currency to EUR.
	assert.Equal(t, transaction.CategoryIncome, txs[1].Category)
	assert.Equal(t, "EUR", txs[1].Currency)
	assert.Equal(t, transaction.CategoryOther, txs[2].Category)
}
