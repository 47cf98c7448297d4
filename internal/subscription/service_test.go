package subscription_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/clairehq/claire/internal/subscription"
	"github.com/clairehq/claire/internal/transaction"
)

var (
	windowStart = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	windowEnd   = time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
)

func debit(id string) *transaction.Transaction {
	return &transaction.Transaction{
		ID:          id,
		UserID:      1,
		Description: "NETFLIX.COM",
		Amount:      decimal.NewFromFloat(12.99),
		Type:        transaction.TypeDebit,
	}
}

func newService(t *testing.T) (*subscription.Service, *subscription.MockRepository, *subscription.MockClassifier) {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	repo := subscription.NewMockRepository(ctrl)
	classifier := subscription.NewMockClassifier(ctrl)

	return subscription.NewService(repo, classifier), repo, classifier
}

func TestService_Classify_RangeValidation(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.Classify(context.Background(), 1, windowEnd, windowStart)
	assert.ErrorIs(t, err, subscription.ErrInvalidRange)

	_, err = svc.Classify(context.Background(), 1, windowStart, windowStart.AddDate(1, 0, 1))
	assert.ErrorIs(t, err, subscription.ErrRangeTooLarge)
}

func TestService_Classify(t *testing.T) {
	svc, repo, classifier := newService(t)

	txs := []*transaction.Transaction{debit("t1"), debit("t2"), debit("t3")}

	repo.EXPECT().
		ListCandidates(gomock.Any(), int64(1), windowStart, windowEnd).
		Return(txs, nil)

	classifier.EXPECT().
		Classify(gomock.Any(), txs).
		Return([]subscription.Result{
			{
				TransactionID:    "t1",
				IsSubscription:   true,
				Confidence:       0.93,
				MerchantKey:      "netflix",
				SubscriptionName: "Netflix",
				ReasonCodes:      []string{"recurring_amount"},
			},
			{TransactionID: "t2", IsSubscription: false, Confidence: 0.85},
			// t3 deliberately missing from the response.
		}, nil)

	updates := map[string]subscription.Update{}

	repo.EXPECT().
		ApplyUpdate(gomock.Any(), int64(1), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ int64, upd subscription.Update) error {
			updates[upd.TransactionID] = upd
			return nil
		}).
		Times(3)

	summary, err := svc.Classify(context.Background(), 1, windowStart, windowEnd)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Processed)
	assert.Equal(t, 1, summary.SubscriptionsFound)
	assert.Equal(t, 1, summary.NeedsReview)

	assert.True(t, updates["t1"].IsSubscription)
	assert.Equal(t, transaction.SubscriptionPredicted, updates["t1"].Status)
	assert.Equal(t, "netflix", updates["t1"].MerchantKey)

	assert.False(t, updates["t2"].IsSubscription)
	assert.Empty(t, updates["t2"].Status)

	assert.Equal(t, transaction.SubscriptionNeedsReview, updates["t3"].Status)
	assert.Equal(t, []string{subscription.ReasonMissingFromResponse}, updates["t3"].ReasonCodes)
}

func TestService_Classify_BatchFailureParksEverything(t *testing.T) {
	svc, repo, classifier := newService(t)

	txs := []*transaction.Transaction{debit("t1"), debit("t2")}

	repo.EXPECT().
		ListCandidates(gomock.Any(), int64(1), windowStart, windowEnd).
		Return(txs, nil)
	classifier.EXPECT().
		Classify(gomock.Any(), txs).
		Return(nil, errors.New("model unavailable"))

	var parked []subscription.Update

	repo.EXPECT().
		ApplyUpdate(gomock.Any(), int64(1), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ int64, upd subscription.Update) error {
			parked = append(parked, upd)
			return nil
		}).
		Times(2)

	summary, err := svc.Classify(context.Background(), 1, windowStart, windowEnd)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.NeedsReview)
	assert.Equal(t, 0, summary.SubscriptionsFound)

	for _, upd := range parked {
		assert.Equal(t, transaction.SubscriptionNeedsReview, upd.Status)
		assert.Equal(t, []string{subscription.ReasonBatchFailed}, upd.ReasonCodes)
	}
}

func TestService_Classify_Batching(t *testing.T) {
	svc, repo, classifier := newService(t)

	txs := make([]*transaction.Transaction, 450)
	for i := range txs {
		txs[i] = debit(fmt.Sprintf("t%d", i))
	}

	repo.EXPECT().
		ListCandidates(gomock.Any(), int64(1), windowStart, windowEnd).
		Return(txs, nil)

	var batchSizes []int

	classifier.EXPECT().
		Classify(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, batch []*transaction.Transaction) ([]subscription.Result, error) {
			batchSizes = append(batchSizes, len(batch))

			results := make([]subscription.Result, len(batch))
			for i, tx := range batch {
				results[i] = subscription.Result{TransactionID: tx.ID}
			}

			return results, nil
		}).
		Times(2)

	repo.EXPECT().ApplyUpdate(gomock.Any(), int64(1), gomock.Any()).Return(nil).Times(450)

	summary, err := svc.Classify(context.Background(), 1, windowStart, windowEnd)
	require.NoError(t, err)

	assert.Equal(t, []int{300, 150}, batchSizes)
	assert.Equal(t, 450, summary.Processed)
}

func TestService_Review(t *testing.T) {
	svc, repo, _ := newService(t)

	conf := 0.91
	tx := debit("t1")
	tx.SubscriptionStatus = transaction.SubscriptionPredicted
	tx.SubscriptionConfidence = &conf
	tx.SubscriptionMerchantKey = "netflix"
	tx.SubscriptionReasonCodes = []string{"recurring_amount"}

	repo.EXPECT().GetTransaction(gomock.Any(), int64(1), "t1").Return(tx, nil)

	var applied subscription.Update

	repo.EXPECT().
		ApplyUpdate(gomock.Any(), int64(1), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ int64, upd subscription.Update) error {
			applied = upd
			return nil
		})

	got, err := svc.Review(context.Background(), 1, "t1", subscription.DecisionConfirmed)
	require.NoError(t, err)

	assert.Equal(t, transaction.SubscriptionConfirmed, got.SubscriptionStatus)
	assert.True(t, got.IsSubscription)
	assert.Equal(t, []string{"recurring_amount", subscription.ReasonUserConfirmed}, applied.ReasonCodes)
	assert.Equal(t, "netflix", applied.MerchantKey)
}

func TestService_Review_Reject(t *testing.T) {
	svc, repo, _ := newService(t)

	tx := debit("t1")
	tx.SubscriptionStatus = transaction.SubscriptionPredicted
	tx.IsSubscription = true

	repo.EXPECT().GetTransaction(gomock.Any(), int64(1), "t1").Return(tx, nil)

	var applied subscription.Update

	repo.EXPECT().
		ApplyUpdate(gomock.Any(), int64(1), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ int64, upd subscription.Update) error {
			applied = upd
			return nil
		})

	got, err := svc.Review(context.Background(), 1, "t1", subscription.DecisionRejected)
	require.NoError(t, err)

	assert.Equal(t, transaction.SubscriptionRejected, got.SubscriptionStatus)
	assert.False(t, got.IsSubscription)
	assert.Contains(t, applied.ReasonCodes, subscription.ReasonUserRejected)
}

func TestService_Review_Validation(t *testing.T) {
	svc, repo, _ := newService(t)

	_, err := svc.Review(context.Background(), 1, "t1", subscription.Decision("maybe"))
	assert.ErrorIs(t, err, subscription.ErrInvalidDecision)

	credit := debit("t2")
	credit.Type = transaction.TypeCredit

	repo.EXPECT().GetTransaction(gomock.Any(), int64(1), "t2").Return(credit, nil)

	_, err = svc.Review(context.Background(), 1, "t2", subscription.DecisionConfirmed)
	assert.ErrorIs(t, err, subscription.ErrNotDebit)
}

func TestService_Review_FinalizedDecisionIsNeverOverwritten(t *testing.T) {
	svc, repo, _ := newService(t)

	for _, status := range []transaction.SubscriptionStatus{
		transaction.SubscriptionConfirmed,
		transaction.SubscriptionRejected,
	} {
		tx := debit("t1")
		tx.SubscriptionStatus = status

		repo.EXPECT().GetTransaction(gomock.Any(), int64(1), "t1").Return(tx, nil)

		_, err := svc.Review(context.Background(), 1, "t1", subscription.DecisionRejected)
		assert.ErrorIs(t, err, subscription.ErrAlreadyFinalized)
	}
}

func TestService_Aggregated_InvalidRange(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.Aggregated(context.Background(), 1, &windowEnd, &windowStart)
	assert.ErrorIs(t, err, subscription.ErrInvalidRange)
}
