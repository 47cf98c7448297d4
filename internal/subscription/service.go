package subscription

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/clairehq/claire/internal/transaction"
)

const (
	// batchSize caps how many transactions go to the model per call.
	batchSize = 300
	// maxRange caps the classification window.
	maxRange = 365 * 24 * time.Hour
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=subscription
type Repository interface {
	// ListCandidates returns debits in the window whose classification is
	// not finalized by a user decision.
	ListCandidates(ctx context.Context, userID int64, start, end time.Time) ([]*transaction.Transaction, error)
	// ListSubscriptions returns predicted and confirmed subscription
	// charges, optionally narrowed to a window.
	ListSubscriptions(ctx context.Context, userID int64, start, end *time.Time) ([]*transaction.Transaction, error)
	ListNeedsReview(ctx context.Context, userID int64) ([]*transaction.Transaction, error)
	GetTransaction(ctx context.Context, userID int64, id string) (*transaction.Transaction, error)
	ApplyUpdate(ctx context.Context, userID int64, upd Update) error
}

// Classifier produces verdicts for one batch of transactions.
type Classifier interface {
	Classify(ctx context.Context, txs []*transaction.Transaction) ([]Result, error)
}

type Service struct {
	repo       Repository
	classifier Classifier
	now        func() time.Time
}

func NewService(repo Repository, classifier Classifier) *Service {
	return &Service{repo: repo, classifier: classifier, now: time.Now}
}

// Classify runs subscription detection over the window. Batches that fail
// and verdicts the model omitted are parked as needs_review instead of being
// dropped, so nothing silently escapes the review queue.
func (s *Service) Classify(ctx context.Context, userID int64, start, end time.Time) (*Summary, error) {
	if start.After(end) {
		return nil, ErrInvalidRange
	}

	if end.Sub(start) > maxRange {
		return nil, ErrRangeTooLarge
	}

	candidates, err := s.repo.ListCandidates(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("listing candidates: %w", err)
	}

	summary := &Summary{Processed: len(candidates)}

	for batchStart := 0; batchStart < len(candidates); batchStart += batchSize {
		batch := candidates[batchStart:min(batchStart+batchSize, len(candidates))]

		if err := s.classifyBatch(ctx, userID, batch, summary); err != nil {
			return nil, err
		}
	}

	return summary, nil
}

func (s *Service) classifyBatch(ctx context.Context, userID int64, batch []*transaction.Transaction, summary *Summary) error {
	results, err := s.classifier.Classify(ctx, batch)
	if err != nil {
		slog.Warn("classification batch failed", "user_id", userID, "batch_size", len(batch), "error", err)

		for _, tx := range batch {
			if err := s.park(ctx, userID, tx, ReasonBatchFailed); err != nil {
				return err
			}

			summary.NeedsReview++
		}

		return nil
	}

	byID := make(map[string]Result, len(results))
	for _, res := range results {
		byID[res.TransactionID] = res
	}

	for _, tx := range batch {
		res, ok := byID[tx.ID]
		if !ok {
			if err := s.park(ctx, userID, tx, ReasonMissingFromResponse); err != nil {
				return err
			}

			summary.NeedsReview++

			continue
		}

		upd := Update{
			TransactionID:    tx.ID,
			IsSubscription:   res.IsSubscription,
			Confidence:       &res.Confidence,
			MerchantKey:      res.MerchantKey,
			SubscriptionName: res.SubscriptionName,
			ReasonCodes:      res.ReasonCodes,
			UpdatedAt:        s.now(),
		}

		if res.IsSubscription {
			upd.Status = transaction.SubscriptionPredicted
			summary.SubscriptionsFound++
		}

		if err := s.repo.ApplyUpdate(ctx, userID, upd); err != nil {
			return fmt.Errorf("applying classification: %w", err)
		}
	}

	return nil
}

func (s *Service) park(ctx context.Context, userID int64, tx *transaction.Transaction, reason string) error {
	err := s.repo.ApplyUpdate(ctx, userID, Update{
		TransactionID: tx.ID,
		Status:        transaction.SubscriptionNeedsReview,
		ReasonCodes:   []string{reason},
		UpdatedAt:     s.now(),
	})
	if err != nil {
		return fmt.Errorf("parking transaction for review: %w", err)
	}

	return nil
}

// Aggregated rolls the user's subscriptions up per merchant.
func (s *Service) Aggregated(ctx context.Context, userID int64, start, end *time.Time) ([]Aggregate, error) {
	if start != nil && end != nil && start.After(*end) {
		return nil, ErrInvalidRange
	}

	txs, err := s.repo.ListSubscriptions(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("listing subscriptions: %w", err)
	}

	return BuildAggregates(txs), nil
}

// NeedsReview returns the review queue, oldest first.
func (s *Service) NeedsReview(ctx context.Context, userID int64) ([]*transaction.Transaction, error) {
	return s.repo.ListNeedsReview(ctx, userID)
}

// Review applies a user decision to one transaction. Decisions are final;
// the classifier never overwrites them.
func (s *Service) Review(ctx context.Context, userID int64, txID string, decision Decision) (*transaction.Transaction, error) {
	if decision != DecisionConfirmed && decision != DecisionRejected {
		return nil, ErrInvalidDecision
	}

	tx, err := s.repo.GetTransaction(ctx, userID, txID)
	if err != nil {
		return nil, err
	}

	if tx.Type != transaction.TypeDebit {
		return nil, ErrNotDebit
	}

	if tx.SubscriptionStatus.Finalized() {
		return nil, ErrAlreadyFinalized
	}

	reason := ReasonUserConfirmed
	status := transaction.SubscriptionConfirmed
	isSubscription := true

	if decision == DecisionRejected {
		reason = ReasonUserRejected
		status = transaction.SubscriptionRejected
		isSubscription = false
	}

	now := s.now()
	upd := Update{
		TransactionID:    tx.ID,
		IsSubscription:   isSubscription,
		Status:           status,
		Confidence:       tx.SubscriptionConfidence,
		MerchantKey:      tx.SubscriptionMerchantKey,
		SubscriptionName: tx.SubscriptionName,
		ReasonCodes:      append(tx.SubscriptionReasonCodes, reason),
		UpdatedAt:        now,
	}

	if err := s.repo.ApplyUpdate(ctx, userID, upd); err != nil {
		return nil, fmt.Errorf("applying decision: %w", err)
	}

	tx.IsSubscription = isSubscription
	tx.SubscriptionStatus = status
	tx.SubscriptionReasonCodes = upd.ReasonCodes
	tx.SubscriptionUpdatedAt = &now

	return tx, nil
}
