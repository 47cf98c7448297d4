package insight_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/clairehq/claire/internal/insight"
	"github.com/clairehq/claire/internal/transaction"
)

func newService(t *testing.T) (*insight.Service, *insight.MockRepository, *insight.MockTransactions, *insight.MockGenerator) {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	repo := insight.NewMockRepository(ctrl)
	txs := insight.NewMockTransactions(ctrl)
	gen := insight.NewMockGenerator(ctrl)

	return insight.NewService(repo, txs, gen), repo, txs, gen
}

func TestService_Analyze(t *testing.T) {
	svc, repo, txs, gen := newService(t)

	recent := []*transaction.Transaction{
		{ID: "t1", Amount: decimal.NewFromInt(10), Type: transaction.TypeDebit},
	}

	txs.EXPECT().List(gomock.Any(), gomock.Any()).Return(recent, nil)
	gen.EXPECT().
		Generate(gomock.Any(), recent, gomock.Any(), gomock.Any()).
		Return([]*insight.Insight{
			{Type: insight.TypePattern, Title: "Spending pattern"},
		})

	var stored []*insight.Insight

	repo.EXPECT().
		ReplaceAll(gomock.Any(), int64(1), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ int64, insights []*insight.Insight) error {
			stored = insights
			return nil
		})

	require.NoError(t, svc.Analyze(context.Background(), 1))
	require.Len(t, stored, 1)
	assert.NotEmpty(t, stored[0].ID)
	assert.Equal(t, int64(1), stored[0].UserID)
}

func TestService_Analyze_NoTransactionsIsNoOp(t *testing.T) {
	svc, _, txs, _ := newService(t)

	txs.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, nil)

	require.NoError(t, svc.Analyze(context.Background(), 1))
}

func TestService_AnalyzeScope_ByFile(t *testing.T) {
	svc, repo, txs, gen := newService(t)

	fileID := "file-1"
	early := time.Date(2026, 6, 3, 0, 0, 0, 0, time.UTC)
	late := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)

	scoped := []*transaction.Transaction{
		{ID: "t1", Date: late, Amount: decimal.NewFromInt(10), Type: transaction.TypeDebit},
		{ID: "t2", Date: early, Amount: decimal.NewFromInt(5), Type: transaction.TypeDebit},
	}

	txs.EXPECT().
		List(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, filter transaction.Filter) ([]*transaction.Transaction, error) {
			require.NotNil(t, filter.FileID)
			assert.Equal(t, fileID, *filter.FileID)
			return scoped, nil
		})

	// The window is derived from the statement's transaction dates.
	gen.EXPECT().
		Generate(gomock.Any(), scoped, early, late).
		Return([]*insight.Insight{{Type: insight.TypeAlert, Title: "Large purchase"}})

	repo.EXPECT().ReplaceAll(gomock.Any(), int64(1), gomock.Any()).Return(nil)

	insights, err := svc.AnalyzeScope(context.Background(), 1, &fileID, nil, nil)
	require.NoError(t, err)
	require.Len(t, insights, 1)
	assert.NotEmpty(t, insights[0].ID)
	assert.Equal(t, int64(1), insights[0].UserID)
}

func TestService_AnalyzeScope_Validation(t *testing.T) {
	svc, _, _, _ := newService(t)

	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.AnalyzeScope(context.Background(), 1, nil, &start, nil)
	assert.ErrorIs(t, err, insight.ErrHalfRange)

	_, err = svc.AnalyzeScope(context.Background(), 1, nil, nil, nil)
	assert.ErrorIs(t, err, insight.ErrNoScope)

	_, err = svc.AnalyzeScope(context.Background(), 1, nil, &start, &end)
	assert.ErrorIs(t, err, insight.ErrInvalidRange)
}

func TestService_AnalyzeScope_EmptyScopeProducesNothing(t *testing.T) {
	svc, _, txs, _ := newService(t)

	fileID := "file-1"
	txs.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, nil)

	insights, err := svc.AnalyzeScope(context.Background(), 1, &fileID, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, insights)
}

func TestService_List_Groups(t *testing.T) {
	svc, repo, _, _ := newService(t)

	repo.EXPECT().
		List(gomock.Any(), int64(1), nil, nil).
		Return([]*insight.Insight{
			{ID: "i1", Type: insight.TypePattern},
			{ID: "i2", Type: insight.TypeAlert},
			{ID: "i3", Type: insight.TypeRecommendation},
			{ID: "i4", Type: insight.TypePattern},
		}, nil)

	grouped, err := svc.List(context.Background(), 1, nil, nil)
	require.NoError(t, err)
	assert.Len(t, grouped.Patterns, 2)
	assert.Len(t, grouped.Alerts, 1)
	assert.Len(t, grouped.Recommendations, 1)
}

func TestService_List_HalfRangeRejected(t *testing.T) {
	svc, _, _, _ := newService(t)

	start := time.Now()

	_, err := svc.List(context.Background(), 1, &start, nil)
	assert.ErrorIs(t, err, insight.ErrHalfRange)

	_, err = svc.List(context.Background(), 1, nil, &start)
	assert.ErrorIs(t, err, insight.ErrHalfRange)
}

func TestService_DeleteAll(t *testing.T) {
	svc, repo, _, _ := newService(t)

	repo.EXPECT().DeleteAll(gomock.Any(), int64(1)).Return(int64(4), nil)

	n, err := svc.DeleteAll(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestNormalizeIcon(t *testing.T) {
	assert.Equal(t, "piggy_bank", insight.NormalizeIcon("piggy_bank"))
	assert.Equal(t, "lightbulb", insight.NormalizeIcon("sparkles"))
	assert.Equal(t, "lightbulb", insight.NormalizeIcon(""))
}
