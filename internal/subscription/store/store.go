package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/clairehq/claire/internal/subscription"
	"github.com/clairehq/claire/internal/transaction"
	txstore "github.com/clairehq/claire/internal/transaction/store"
)

// Store reads and writes the subscription columns of the transaction table.
// Reads go through the transaction store so row scanning stays in one place.
type Store struct {
	db  *sql.DB
	txs *txstore.Store
}

func New(db *sql.DB) *Store {
	return &Store{db: db, txs: txstore.New(db)}
}

func (s *Store) ListCandidates(ctx context.Context, userID int64, start, end time.Time) ([]*transaction.Transaction, error) {
	debit := transaction.TypeDebit

	txs, err := s.txs.ListTransactions(ctx, transaction.Filter{
		UserID:    &userID,
		StartDate: &start,
		EndDate:   &end,
		Type:      &debit,
	})
	if err != nil {
		return nil, err
	}

	candidates := make([]*transaction.Transaction, 0, len(txs))

	for _, tx := range txs {
		if tx.SubscriptionStatus.Finalized() {
			continue
		}

		candidates = append(candidates, tx)
	}

	return candidates, nil
}

func (s *Store) ListSubscriptions(ctx context.Context, userID int64, start, end *time.Time) ([]*transaction.Transaction, error) {
	isSubscription := true

	return s.txs.ListTransactions(ctx, transaction.Filter{
		UserID:         &userID,
		StartDate:      start,
		EndDate:        end,
		IsSubscription: &isSubscription,
		SubscriptionStatuses: []transaction.SubscriptionStatus{
			transaction.SubscriptionPredicted,
			transaction.SubscriptionConfirmed,
		},
	})
}

func (s *Store) ListNeedsReview(ctx context.Context, userID int64) ([]*transaction.Transaction, error) {
	return s.txs.ListTransactions(ctx, transaction.Filter{
		UserID: &userID,
		SubscriptionStatuses: []transaction.SubscriptionStatus{
			transaction.SubscriptionNeedsReview,
		},
	})
}

func (s *Store) GetTransaction(ctx context.Context, userID int64, id string) (*transaction.Transaction, error) {
	return s.txs.GetTransaction(ctx, userID, id)
}

func (s *Store) ApplyUpdate(ctx context.Context, userID int64, upd subscription.Update) error {
	var reasonCodes any

	if upd.ReasonCodes != nil {
		encoded, err := json.Marshal(upd.ReasonCodes)
		if err != nil {
			return fmt.Errorf("encoding reason codes: %w", err)
		}

		reasonCodes = encoded
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE statement_banking_transaction
		SET is_subscription = $1,
			subscription_status = $2,
			subscription_confidence = $3,
			subscription_merchant_key = $4,
			subscription_name = $5,
			subscription_reason_codes = $6,
			subscription_updated_at = $7
		WHERE id = $8 AND user_id = $9
	`, upd.IsSubscription, nullString(string(upd.Status)), upd.Confidence,
		nullString(upd.MerchantKey), nullString(upd.SubscriptionName),
		reasonCodes, upd.UpdatedAt, upd.TransactionID, userID)
	if err != nil {
		return fmt.Errorf("updating classification: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update: %w", err)
	}

	if n == 0 {
		return transaction.ErrNotFound
	}

	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
