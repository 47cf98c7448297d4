package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/clairehq/claire/internal/goal"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const selectColumns = `g.id, g.user_id, g.name, g.target_amount, g.current_saved,
	g.banner, g.target_date, g.created_at, g.updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanGoal(s scanner) (*goal.Goal, error) {
	var g goal.Goal

	if err := s.Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount, &g.CurrentSaved,
		&g.Banner, &g.TargetDate, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return nil, err
	}

	return &g, nil
}

func (s *Store) Create(ctx context.Context, g *goal.Goal) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO savings_goal (id, user_id, name, target_amount, current_saved, banner, target_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING created_at, updated_at
	`, g.ID, g.UserID, g.Name, g.TargetAmount, g.CurrentSaved, g.Banner, g.TargetDate).
		Scan(&g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating goal: %w", err)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, userID int64, id string) (*goal.Goal, error) {
	g, err := scanGoal(s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM savings_goal g WHERE g.id = $1 AND g.user_id = $2`, id, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, goal.ErrNotFound
		}

		return nil, fmt.Errorf("getting goal: %w", err)
	}

	return g, nil
}

func (s *Store) List(ctx context.Context, userID int64) ([]*goal.Goal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+selectColumns+`
		FROM savings_goal g
		WHERE g.user_id = $1
		ORDER BY g.created_at ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing goals: %w", err)
	}
	defer rows.Close()

	var goals []*goal.Goal

	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning goal: %w", err)
		}

		goals = append(goals, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating goals: %w", err)
	}

	return goals, nil
}

func (s *Store) Update(ctx context.Context, g *goal.Goal) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE savings_goal
		SET name = $1, target_amount = $2, current_saved = $3, banner = $4, target_date = $5, updated_at = $6
		WHERE id = $7 AND user_id = $8
	`, g.Name, g.TargetAmount, g.CurrentSaved, g.Banner, g.TargetDate, g.UpdatedAt, g.ID, g.UserID)
	if err != nil {
		return fmt.Errorf("updating goal: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update: %w", err)
	}

	if n == 0 {
		return goal.ErrNotFound
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, userID int64, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM savings_goal WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting goal: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete: %w", err)
	}

	if n == 0 {
		return goal.ErrNotFound
	}

	return nil
}
