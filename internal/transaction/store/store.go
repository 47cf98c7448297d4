package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/clairehq/claire/internal/transaction"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const selectColumns = `
	t.id, t.user_id, t.file_id, t.transaction_date, t.transaction_year, t.transaction_month,
	t.transaction_day, t.description, t.merchant_name, t.amount, t.transaction_type, t.balance,
	t.reference_number, t.transaction_code, t.category, t.currency, t.is_subscription,
	t.subscription_status, t.subscription_confidence, t.subscription_merchant_key,
	t.subscription_name, t.subscription_reason_codes, t.subscription_updated_at, t.created_at
`

// scanTransaction reads one row in selectColumns order.
func scanTransaction(s scanner) (*transaction.Transaction, error) {
	var tx transaction.Transaction

	var (
		merchant    sql.NullString
		txType      string
		refNumber   sql.NullString
		txCode      sql.NullString
		category    sql.NullString
		subStatus   sql.NullString
		subKey      sql.NullString
		subName     sql.NullString
		reasonCodes []byte
	)

	if err := s.Scan(
		&tx.ID, &tx.UserID, &tx.FileID, &tx.Date, &tx.Year, &tx.Month,
		&tx.Day, &tx.Description, &merchant, &tx.Amount, &txType, &tx.Balance,
		&refNumber, &txCode, &category, &tx.Currency, &tx.IsSubscription,
		&subStatus, &tx.SubscriptionConfidence, &subKey,
		&subName, &reasonCodes, &tx.SubscriptionUpdatedAt, &tx.CreatedAt,
	); err != nil {
		return nil, err
	}

	tx.MerchantName = merchant.String
	tx.Type = transaction.Type(txType)
	tx.ReferenceNumber = refNumber.String
	tx.TransactionCode = txCode.String
	tx.Category = transaction.Category(category.String)
	tx.SubscriptionStatus = transaction.SubscriptionStatus(subStatus.String)
	tx.SubscriptionMerchantKey = subKey.String
	tx.SubscriptionName = subName.String

	if len(reasonCodes) > 0 {
		if err := json.Unmarshal(reasonCodes, &tx.SubscriptionReasonCodes); err != nil {
			return nil, fmt.Errorf("decoding reason codes: %w", err)
		}
	}

	return &tx, nil
}

func (s *Store) CreateBatch(ctx context.Context, txs []*transaction.Transaction) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	query := `
		INSERT INTO statement_banking_transaction (
			id, user_id, file_id, transaction_date, transaction_year, transaction_month,
			transaction_day, description, merchant_name, amount, transaction_type, balance,
			reference_number, transaction_code, category, currency, is_subscription,
			subscription_status, subscription_confidence, subscription_merchant_key,
			subscription_name, subscription_reason_codes, subscription_updated_at, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
			$18, $19, $20, $21, $22, $23, NOW())
		ON CONFLICT (id) DO NOTHING
	`

	for _, tx := range txs {
		var reasonCodes any
		if tx.SubscriptionReasonCodes != nil {
			encoded, err := json.Marshal(tx.SubscriptionReasonCodes)
			if err != nil {
				return fmt.Errorf("encoding reason codes: %w", err)
			}

			reasonCodes = encoded
		}

		if _, err := dbTx.ExecContext(ctx, query,
			tx.ID, tx.UserID, tx.FileID, tx.Date, tx.Year, tx.Month,
			tx.Day, tx.Description, nullString(tx.MerchantName), tx.Amount, tx.Type, tx.Balance,
			nullString(tx.ReferenceNumber), nullString(tx.TransactionCode),
			nullString(string(tx.Category)), tx.Currency, tx.IsSubscription,
			nullString(string(tx.SubscriptionStatus)), tx.SubscriptionConfidence,
			nullString(tx.SubscriptionMerchantKey), nullString(tx.SubscriptionName),
			reasonCodes, tx.SubscriptionUpdatedAt,
		); err != nil {
			return fmt.Errorf("creating transaction %s: %w", tx.ID, err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing batch: %w", err)
	}

	return nil
}

func (s *Store) GetTransaction(ctx context.Context, userID int64, id string) (*transaction.Transaction, error) {
	query := `SELECT ` + selectColumns + `
		FROM statement_banking_transaction t
		WHERE t.id = $1 AND t.user_id = $2`

	tx, err := scanTransaction(s.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, transaction.ErrNotFound
		}

		return nil, fmt.Errorf("getting transaction: %w", err)
	}

	return tx, nil
}

func (s *Store) ListTransactions(ctx context.Context, filter transaction.Filter) ([]*transaction.Transaction, error) {
	query := `SELECT ` + selectColumns + `
		FROM statement_banking_transaction t
		WHERE 1=1`

	var args []any

	argIdx := 1

	appendCond := func(cond string, value any) {
		query += fmt.Sprintf(" AND "+cond, argIdx)

		args = append(args, value)
		argIdx++
	}

	if filter.UserID != nil {
		appendCond("t.user_id = $%d", *filter.UserID)
	}

	if filter.FileID != nil {
		appendCond("t.file_id = $%d", *filter.FileID)
	}

	if filter.StartDate != nil {
		appendCond("t.transaction_date >= $%d", *filter.StartDate)
	}

	if filter.EndDate != nil {
		appendCond("t.transaction_date <= $%d", *filter.EndDate)
	}

	if filter.MerchantName != nil {
		appendCond("t.merchant_name ILIKE '%%' || $%d || '%%'", *filter.MerchantName)
	}

	if filter.Type != nil {
		appendCond("t.transaction_type = $%d", *filter.Type)
	}

	if filter.Category != nil {
		appendCond("t.category = $%d", *filter.Category)
	}

	if filter.IsSubscription != nil {
		appendCond("t.is_subscription = $%d", *filter.IsSubscription)
	}

	if filter.MinAmount != nil {
		appendCond("t.amount >= $%d", *filter.MinAmount)
	}

	if filter.MaxAmount != nil {
		appendCond("t.amount <= $%d", *filter.MaxAmount)
	}

	if filter.Year != nil {
		appendCond("t.transaction_year = $%d", *filter.Year)
	}

	if filter.Month != nil {
		appendCond("t.transaction_month = $%d", *filter.Month)
	}

	if filter.Currency != nil {
		appendCond("t.currency = $%d", *filter.Currency)
	}

	if filter.Description != nil {
		appendCond("t.description ILIKE '%%' || $%d || '%%'", *filter.Description)
	}

	if len(filter.SubscriptionStatuses) > 0 {
		placeholders := make([]string, len(filter.SubscriptionStatuses))

		for i, status := range filter.SubscriptionStatuses {
			placeholders[i] = fmt.Sprintf("$%d", argIdx)

			args = append(args, status)
			argIdx++
		}

		query += " AND t.subscription_status IN (" + strings.Join(placeholders, ", ") + ")"
	}

	dir := "ASC"
	if filter.OrderDesc {
		dir = "DESC"
	}

	query += fmt.Sprintf(" ORDER BY t.%s %s, t.id %s", filter.OrderColumn(), dir, dir)

	if filter.Limit != nil {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)

		args = append(args, *filter.Limit)
		argIdx++
	}

	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)

		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var txs []*transaction.Transaction

	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}

		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transactions: %w", err)
	}

	return txs, nil
}

func (s *Store) DeleteByFile(ctx context.Context, userID int64, fileID string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM statement_banking_transaction WHERE user_id = $1 AND file_id = $2`,
		userID, fileID,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting transactions: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted transactions: %w", err)
	}

	return n, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
