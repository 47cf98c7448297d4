package demo_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clairehq/claire/internal/demo"
	"github.com/clairehq/claire/internal/transaction"
)

func TestTransactions(t *testing.T) {
	txs, latest, err := demo.Transactions(7, "demo-file")
	require.NoError(t, err)
	require.NotEmpty(t, txs)

	assert.Equal(t, "demo-file_0", txs[0].ID)
	assert.Equal(t, time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC), latest)

	var confirmed, needsReview int

	for i, tx := range txs {
		assert.Equal(t, int64(7), tx.UserID)
		assert.Equal(t, "demo-file", tx.FileID)
		assert.False(t, tx.Date.IsZero())
		assert.Equal(t, tx.Date.Year(), tx.Year)
		assert.NotEmpty(t, tx.Description, "row %d", i)
		assert.Contains(t, []transaction.Type{transaction.TypeDebit, transaction.TypeCredit}, tx.Type)

		switch tx.SubscriptionStatus {
		case transaction.SubscriptionConfirmed:
			confirmed++
		case transaction.SubscriptionNeedsReview:
			needsReview++
		}
	}

	// "active" rows map onto confirmed; the review queue has material.
	assert.NotZero(t, confirmed)
	assert.NotZero(t, needsReview)
}

func TestTransactions_Idempotent(t *testing.T) {
	a, _, err := demo.Transactions(1, "f")
	require.NoError(t, err)

	b, _, err := demo.Transactions(1, "f")
	require.NoError(t, err)

	require.Equal(t, len(a), len(b))

	for i := range a {
		assert.Equal(t, a[i].ID, b[i].ID)
	}
}
