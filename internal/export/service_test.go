package export

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/clairehq/claire/internal/transaction"
)

func TestService_Export(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := transaction.NewMockRepository(ctrl)

	userID := int64(7)

	txs := []*transaction.Transaction{
		{
			ID:           "file-1_0",
			UserID:       userID,
			Date:         time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			Description:  "Salary March",
			MerchantName: "Acme Corp",
			Amount:       decimal.NewFromInt(2500),
			Type:         transaction.TypeCredit,
			Category:     transaction.CategoryIncome,
			Currency:     "EUR",
		},
		{
			ID:             "file-1_1",
			UserID:         userID,
			Date:           time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC),
			Description:    "Netflix",
			MerchantName:   "Netflix",
			Amount:         decimal.NewFromFloat(12.99),
			Type:           transaction.TypeDebit,
			Category:       transaction.CategorySubscriptions,
			Currency:       "EUR",
			IsSubscription: true,
		},
	}

	repo.EXPECT().
		ListTransactions(gomock.Any(), gomock.Any()).
		Return(txs, nil)

	svc := NewService(transaction.NewService(repo))

	var buf bytes.Buffer

	rows, err := svc.Export(context.Background(), &buf, transaction.Filter{UserID: &userID})
	require.NoError(t, err)
	assert.Equal(t, 2, rows)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)

	assert.Equal(t, "date,description,merchant,amount,type,category,currency,subscription", lines[0])
	assert.Equal(t, "2025-03-01,Salary March,Acme Corp,2500.00,credit,income,EUR,false", lines[1])
	assert.Equal(t, "2025-03-02,Netflix,Netflix,12.99,debit,subscriptions_and_memberships,EUR,true", lines[2])
}

func TestService_Summary(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := transaction.NewMockRepository(ctrl)

	userID := int64(7)

	txs := []*transaction.Transaction{
		{
			ID:          "file-1_0",
			Date:        time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			Description: "Salary",
			Amount:      decimal.NewFromInt(1000),
			Type:        transaction.TypeCredit,
			Currency:    "EUR",
		},
		{
			ID:          "file-1_1",
			Date:        time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC),
			Description: "Rent",
			Amount:      decimal.NewFromInt(600),
			Type:        transaction.TypeDebit,
			Currency:    "EUR",
		},
	}

	repo.EXPECT().
		ListTransactions(gomock.Any(), gomock.Any()).
		Return(txs, nil)

	svc := NewService(transaction.NewService(repo))

	summary, err := svc.Summary(context.Background(), transaction.Filter{UserID: &userID})
	require.NoError(t, err)

	assert.Contains(t, summary, "* 2025-03-01 | Salary | +1000.00 EUR")
	assert.Contains(t, summary, "* 2025-03-05 | Rent | -600.00 EUR")
	assert.Contains(t, summary, "Net: 400.00")
}
