package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/clairehq/claire/internal/insight"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const selectColumns = `i.id, i.user_id, i.insight_type, i.title, i.description,
	i.icon, i.confidence, i.time_range_start, i.time_range_end, i.created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanInsight(s scanner) (*insight.Insight, error) {
	var ins insight.Insight

	if err := s.Scan(&ins.ID, &ins.UserID, &ins.Type, &ins.Title, &ins.Description,
		&ins.Icon, &ins.Confidence, &ins.TimeRangeStart, &ins.TimeRangeEnd, &ins.CreatedAt); err != nil {
		return nil, err
	}

	return &ins, nil
}

func (s *Store) ReplaceAll(ctx context.Context, userID int64, insights []*insight.Insight) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_insight WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clearing insights: %w", err)
	}

	for _, ins := range insights {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO user_insight (id, user_id, insight_type, title, description, icon, confidence, time_range_start, time_range_end, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		`, ins.ID, ins.UserID, ins.Type, ins.Title, ins.Description, ins.Icon, ins.Confidence, ins.TimeRangeStart, ins.TimeRangeEnd)
		if err != nil {
			return fmt.Errorf("inserting insight: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing insights: %w", err)
	}

	return nil
}

func (s *Store) List(ctx context.Context, userID int64, start, end *time.Time) ([]*insight.Insight, error) {
	query := `SELECT ` + selectColumns + ` FROM user_insight i WHERE i.user_id = $1`
	args := []any{userID}

	if start != nil && end != nil {
		// Overlap test; insights without a range always match.
		args = append(args, *end, *start)
		query += fmt.Sprintf(` AND (i.time_range_start IS NULL OR (i.time_range_start <= $%d AND i.time_range_end >= $%d))`, len(args)-1, len(args))
	}

	query += ` ORDER BY i.confidence DESC, i.created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing insights: %w", err)
	}
	defer rows.Close()

	var insights []*insight.Insight

	for rows.Next() {
		ins, err := scanInsight(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning insight: %w", err)
		}

		insights = append(insights, ins)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating insights: %w", err)
	}

	return insights, nil
}

func (s *Store) DeleteAll(ctx context.Context, userID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM user_insight WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("deleting insights: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking delete: %w", err)
	}

	return n, nil
}

func (s *Store) Delete(ctx context.Context, userID int64, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM user_insight WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting insight: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete: %w", err)
	}

	if n == 0 {
		return insight.ErrNotFound
	}

	return nil
}
