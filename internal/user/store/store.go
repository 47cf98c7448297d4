package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/clairehq/claire/internal/user"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const selectColumns = `u.id, u.clerk_id, u.email, u.created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*user.User, error) {
	var u user.User
	if err := s.Scan(&u.ID, &u.ClerkID, &u.Email, &u.CreatedAt); err != nil {
		return nil, err
	}

	return &u, nil
}

func (s *Store) GetByClerkID(ctx context.Context, clerkID string) (*user.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM app_user u WHERE u.clerk_id = $1`, clerkID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, user.ErrNotFound
		}

		return nil, fmt.Errorf("getting user by clerk id: %w", err)
	}

	return u, nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (*user.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM app_user u WHERE u.id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, user.ErrNotFound
		}

		return nil, fmt.Errorf("getting user: %w", err)
	}

	return u, nil
}

func (s *Store) Create(ctx context.Context, u *user.User) error {
	// Concurrent first requests for the same identity race on insert; the
	// conflict clause makes the second writer read back the winner's row.
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO app_user (clerk_id, email, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (clerk_id) DO UPDATE SET clerk_id = EXCLUDED.clerk_id
		RETURNING id, clerk_id, email, created_at
	`, u.ClerkID, u.Email).Scan(&u.ID, &u.ClerkID, &u.Email, &u.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating user: %w", err)
	}

	return nil
}
