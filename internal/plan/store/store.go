package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/clairehq/claire/internal/plan"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const selectColumns = `p.id, p.user_id, p.file_id, p.status, p.target_amount, p.currency,
	p.timeframe_days, p.title, p.summary, p.actions, p.expected_amount, p.confidence,
	p.saved_so_far, p.actions_progress, p.created_at, p.updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanPlan(s scanner) (*plan.Plan, error) {
	var (
		p        plan.Plan
		actions  []byte
		progress []byte
	)

	if err := s.Scan(&p.ID, &p.UserID, &p.FileID, &p.Status, &p.TargetAmount, &p.Currency,
		&p.TimeframeDays, &p.Title, &p.Summary, &actions, &p.ExpectedAmount, &p.Confidence,
		&p.SavedSoFar, &progress, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(actions, &p.Actions); err != nil {
		return nil, fmt.Errorf("decoding actions: %w", err)
	}

	if err := json.Unmarshal(progress, &p.ActionsProgress); err != nil {
		return nil, fmt.Errorf("decoding actions progress: %w", err)
	}

	return &p, nil
}

func (s *Store) CreateBatch(ctx context.Context, plans []*plan.Plan) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, p := range plans {
		actions, err := json.Marshal(p.Actions)
		if err != nil {
			return fmt.Errorf("encoding actions: %w", err)
		}

		progress, err := json.Marshal(p.ActionsProgress)
		if err != nil {
			return fmt.Errorf("encoding actions progress: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO earn_extra_plan (id, user_id, file_id, status, target_amount, currency,
				timeframe_days, title, summary, actions, expected_amount, confidence,
				saved_so_far, actions_progress, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
		`, p.ID, p.UserID, p.FileID, p.Status, p.TargetAmount, p.Currency,
			p.TimeframeDays, p.Title, p.Summary, actions, p.ExpectedAmount, p.Confidence,
			p.SavedSoFar, progress)
		if err != nil {
			return fmt.Errorf("inserting plan: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing plans: %w", err)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, userID int64, id string) (*plan.Plan, error) {
	p, err := scanPlan(s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM earn_extra_plan p WHERE p.id = $1 AND p.user_id = $2`, id, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, plan.ErrNotFound
		}

		return nil, fmt.Errorf("getting plan: %w", err)
	}

	return p, nil
}

func (s *Store) List(ctx context.Context, userID int64, params plan.ListParams) ([]*plan.Plan, error) {
	query := `SELECT ` + selectColumns + ` FROM earn_extra_plan p WHERE p.user_id = $1`
	args := []any{userID}

	if params.Status != nil {
		args = append(args, *params.Status)
		query += fmt.Sprintf(" AND p.status = $%d", len(args))
	}

	args = append(args, params.Limit, params.Offset)
	query += fmt.Sprintf(" ORDER BY p.updated_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing plans: %w", err)
	}
	defer rows.Close()

	var plans []*plan.Plan

	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning plan: %w", err)
		}

		plans = append(plans, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating plans: %w", err)
	}

	return plans, nil
}

func (s *Store) Update(ctx context.Context, p *plan.Plan) error {
	progress, err := json.Marshal(p.ActionsProgress)
	if err != nil {
		return fmt.Errorf("encoding actions progress: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE earn_extra_plan
		SET status = $1, saved_so_far = $2, actions_progress = $3, updated_at = $4
		WHERE id = $5 AND user_id = $6
	`, p.Status, p.SavedSoFar, progress, p.UpdatedAt, p.ID, p.UserID)
	if err != nil {
		return fmt.Errorf("updating plan: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update: %w", err)
	}

	if n == 0 {
		return plan.ErrNotFound
	}

	return nil
}

// Activate archives the current active plan and activates the given one in
// one database transaction, so two concurrent activations cannot leave two
// active plans behind.
func (s *Store) Activate(ctx context.Context, userID int64, id string, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		UPDATE earn_extra_plan
		SET status = $1, updated_at = $2
		WHERE user_id = $3 AND status = $4
	`, plan.StatusArchived, at, userID, plan.StatusActive)
	if err != nil {
		return fmt.Errorf("archiving active plan: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE earn_extra_plan
		SET status = $1, updated_at = $2
		WHERE id = $3 AND user_id = $4
	`, plan.StatusActive, at, id, userID)
	if err != nil {
		return fmt.Errorf("activating plan: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking activation: %w", err)
	}

	if n == 0 {
		return plan.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing activation: %w", err)
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, userID int64, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM earn_extra_plan WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting plan: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete: %w", err)
	}

	if n == 0 {
		return plan.ErrNotFound
	}

	return nil
}
