package insight

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clairehq/claire/internal/transaction"
)

// analysisWindow is how far back the analyzer looks.
const analysisWindow = 90 * 24 * time.Hour

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=insight
type Repository interface {
	// ReplaceAll swaps the user's insights for a fresh set atomically.
	ReplaceAll(ctx context.Context, userID int64, insights []*Insight) error
	// List returns insights whose time range overlaps the window. Insights
	// without a range always match. Nil bounds mean no window.
	List(ctx context.Context, userID int64, start, end *time.Time) ([]*Insight, error)
	Delete(ctx context.Context, userID int64, id string) error
	// DeleteAll removes every insight the user has and reports the count.
	DeleteAll(ctx context.Context, userID int64) (int64, error)
}

// Transactions is the slice of the transaction service insights depend on.
type Transactions interface {
	List(ctx context.Context, filter transaction.Filter) ([]*transaction.Transaction, error)
}

// Generator produces insights from a window of transactions.
type Generator interface {
	Generate(ctx context.Context, txs []*transaction.Transaction, start, end time.Time) []*Insight
}

type Service struct {
	repo      Repository
	txs       Transactions
	generator Generator
	now       func() time.Time
}

func NewService(repo Repository, txs Transactions, generator Generator) *Service {
	return &Service{repo: repo, txs: txs, generator: generator, now: time.Now}
}

// Analyze regenerates the user's insights from their recent transactions.
// It runs after uploads, off the request path.
func (s *Service) Analyze(ctx context.Context, userID int64) error {
	end := s.now()
	start := end.Add(-analysisWindow)

	txs, err := s.txs.List(ctx, transaction.Filter{
		UserID:    &userID,
		StartDate: &start,
		EndDate:   &end,
	})
	if err != nil {
		return fmt.Errorf("listing transactions: %w", err)
	}

	if len(txs) == 0 {
		return nil
	}

	insights := s.generator.Generate(ctx, txs, start, end)
	for _, ins := range insights {
		ins.ID = uuid.NewString()
		ins.UserID = userID
	}

	if err := s.repo.ReplaceAll(ctx, userID, insights); err != nil {
		return fmt.Errorf("storing insights: %w", err)
	}

	return nil
}

// AnalyzeScope regenerates insights for an explicit scope, either a single
// statement or a date range, and returns what was produced. For a statement
// scope the insight window is the span of its transaction dates.
func (s *Service) AnalyzeScope(ctx context.Context, userID int64, fileID *string, start, end *time.Time) ([]*Insight, error) {
	if (start == nil) != (end == nil) {
		return nil, ErrHalfRange
	}

	if fileID == nil && start == nil {
		return nil, ErrNoScope
	}

	if start != nil && start.After(*end) {
		return nil, ErrInvalidRange
	}

	filter := transaction.Filter{UserID: &userID, FileID: fileID, StartDate: start, EndDate: end}

	txs, err := s.txs.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}

	if len(txs) == 0 {
		return nil, nil
	}

	var windowStart, windowEnd time.Time
	if start != nil {
		windowStart, windowEnd = *start, *end
	} else {
		windowStart, windowEnd = txs[0].Date, txs[0].Date

		for _, tx := range txs[1:] {
			if tx.Date.Before(windowStart) {
				windowStart = tx.Date
			}

			if tx.Date.After(windowEnd) {
				windowEnd = tx.Date
			}
		}
	}

	insights := s.generator.Generate(ctx, txs, windowStart, windowEnd)
	for _, ins := range insights {
		ins.ID = uuid.NewString()
		ins.UserID = userID
	}

	if err := s.repo.ReplaceAll(ctx, userID, insights); err != nil {
		return nil, fmt.Errorf("storing insights: %w", err)
	}

	return insights, nil
}

// List returns the user's insights grouped by type, optionally narrowed to
// a window. Passing only one bound is an error.
func (s *Service) List(ctx context.Context, userID int64, start, end *time.Time) (*Grouped, error) {
	if (start == nil) != (end == nil) {
		return nil, ErrHalfRange
	}

	insights, err := s.repo.List(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("listing insights: %w", err)
	}

	grouped := &Grouped{}

	for _, ins := range insights {
		switch ins.Type {
		case TypePattern:
			grouped.Patterns = append(grouped.Patterns, ins)
		case TypeAlert:
			grouped.Alerts = append(grouped.Alerts, ins)
		case TypeRecommendation:
			grouped.Recommendations = append(grouped.Recommendations, ins)
		}
	}

	return grouped, nil
}

func (s *Service) Delete(ctx context.Context, userID int64, id string) error {
	return s.repo.Delete(ctx, userID, id)
}

// DeleteAll wipes the user's insights and reports how many were removed.
func (s *Service) DeleteAll(ctx context.Context, userID int64) (int64, error) {
	return s.repo.DeleteAll(ctx, userID)
}
