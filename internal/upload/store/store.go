package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/clairehq/claire/internal/upload"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const selectColumns = `u.id, u.user_id, u.filename, u.content_type, u.size_bytes,
	u.status, u.transaction_count, u.error_message, u.expense_month, u.expense_year, u.created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanUpload(s scanner) (*upload.Upload, error) {
	var (
		u        upload.Upload
		errorMsg sql.NullString
	)

	if err := s.Scan(&u.ID, &u.UserID, &u.Filename, &u.ContentType, &u.SizeBytes,
		&u.Status, &u.TransactionCount, &errorMsg, &u.ExpenseMonth, &u.ExpenseYear,
		&u.CreatedAt); err != nil {
		return nil, err
	}

	u.ErrorMessage = errorMsg.String

	return &u, nil
}

func (s *Store) Create(ctx context.Context, u *upload.Upload) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO user_upload (id, user_id, filename, content_type, size_bytes, status, transaction_count, expense_month, expense_year, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING created_at
	`, u.ID, u.UserID, u.Filename, u.ContentType, u.SizeBytes, u.Status, u.TransactionCount,
		u.ExpenseMonth, u.ExpenseYear).Scan(&u.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating upload: %w", err)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, userID int64, id string) (*upload.Upload, error) {
	u, err := scanUpload(s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM user_upload u WHERE u.id = $1 AND u.user_id = $2`, id, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, upload.ErrNotFound
		}

		return nil, fmt.Errorf("getting upload: %w", err)
	}

	return u, nil
}

func (s *Store) List(ctx context.Context, userID int64, limit int) ([]*upload.Upload, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+selectColumns+`
		FROM user_upload u
		WHERE u.user_id = $1
		ORDER BY u.created_at DESC, u.id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing uploads: %w", err)
	}
	defer rows.Close()

	var ups []*upload.Upload

	for rows.Next() {
		u, err := scanUpload(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning upload: %w", err)
		}

		ups = append(ups, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating uploads: %w", err)
	}

	return ups, nil
}

func (s *Store) UpdateResult(ctx context.Context, u *upload.Upload) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE user_upload
		SET status = $1, transaction_count = $2, error_message = $3
		WHERE id = $4 AND user_id = $5
	`, u.Status, u.TransactionCount, nullString(u.ErrorMessage), u.ID, u.UserID)
	if err != nil {
		return fmt.Errorf("updating upload: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update: %w", err)
	}

	if n == 0 {
		return upload.ErrNotFound
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, userID int64, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM user_upload WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting upload: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete: %w", err)
	}

	if n == 0 {
		return upload.ErrNotFound
	}

	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
