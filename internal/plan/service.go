package plan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clairehq/claire/internal/transaction"
	"github.com/clairehq/claire/internal/upload"
)

const (
	defaultTargetAmount  = 500
	defaultTimeframeDays = 30
	maxTimeframeDays     = 365
)

// ListParams narrows and pages a plan listing.
type ListParams struct {
	Status *Status
	Limit  int
	Offset int
}

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=plan
type Repository interface {
	CreateBatch(ctx context.Context, plans []*Plan) error
	Get(ctx context.Context, userID int64, id string) (*Plan, error)
	List(ctx context.Context, userID int64, params ListParams) ([]*Plan, error)
	Update(ctx context.Context, p *Plan) error
	// Activate marks the plan active and archives any previously active
	// plan in the same database transaction.
	Activate(ctx context.Context, userID int64, id string, at time.Time) error
	Delete(ctx context.Context, userID int64, id string) error
}

// Transactions is the slice of the transaction service plans depend on.
type Transactions interface {
	List(ctx context.Context, filter transaction.Filter) ([]*transaction.Transaction, error)
}

// Uploads resolves the user's newest statement when no file is given.
type Uploads interface {
	Latest(ctx context.Context, userID int64) (*upload.Upload, error)
}

// Generator drafts candidate plans from a user's transactions.
type Generator interface {
	Generate(ctx context.Context, txs []*transaction.Transaction, target decimal.Decimal, timeframeDays int) []*Plan
}

type Service struct {
	repo      Repository
	txs       Transactions
	uploads   Uploads
	generator Generator
	now       func() time.Time
}

func NewService(repo Repository, txs Transactions, uploads Uploads, generator Generator) *Service {
	return &Service{repo: repo, txs: txs, uploads: uploads, generator: generator, now: time.Now}
}

type GenerateParams struct {
	FileID        *string
	TargetAmount  *decimal.Decimal
	TimeframeDays *int
}

// Generate drafts a fresh batch of candidate plans for the user. With no
// file given it falls back to the newest upload; with no uploads at all the
// generator works from an empty spending profile.
func (s *Service) Generate(ctx context.Context, userID int64, params GenerateParams) ([]*Plan, error) {
	target := decimal.NewFromInt(defaultTargetAmount)
	if params.TargetAmount != nil {
		if params.TargetAmount.IsNegative() {
			return nil, ErrNegativeTarget
		}

		target = *params.TargetAmount
	}

	timeframe := defaultTimeframeDays
	if params.TimeframeDays != nil {
		if *params.TimeframeDays < 1 || *params.TimeframeDays > maxTimeframeDays {
			return nil, ErrBadTimeframe
		}

		timeframe = *params.TimeframeDays
	}

	fileID := params.FileID
	if fileID == nil {
		latest, err := s.uploads.Latest(ctx, userID)
		switch {
		case err == nil:
			fileID = &latest.ID
		case errors.Is(err, upload.ErrNotFound):
		default:
			return nil, fmt.Errorf("resolving latest upload: %w", err)
		}
	}

	var txs []*transaction.Transaction

	if fileID != nil {
		var err error

		txs, err = s.txs.List(ctx, transaction.Filter{UserID: &userID, FileID: fileID})
		if err != nil {
			return nil, fmt.Errorf("listing transactions: %w", err)
		}
	}

	plans := s.generator.Generate(ctx, txs, target, timeframe)
	for _, p := range plans {
		p.ID = uuid.NewString()
		p.UserID = userID
		p.FileID = fileID
		p.Status = StatusGenerated
		p.SavedSoFar = decimal.Zero

		if len(p.ActionsProgress) != len(p.Actions) {
			p.ActionsProgress = make([]ActionProgress, len(p.Actions))
		}
	}

	if err := s.repo.CreateBatch(ctx, plans); err != nil {
		return nil, fmt.Errorf("storing plans: %w", err)
	}

	return plans, nil
}

func (s *Service) List(ctx context.Context, userID int64, params ListParams) ([]*Plan, error) {
	if params.Limit < 1 || params.Limit > 100 {
		params.Limit = 50
	}

	if params.Offset < 0 {
		params.Offset = 0
	}

	return s.repo.List(ctx, userID, params)
}

func (s *Service) Get(ctx context.Context, userID int64, id string) (*Plan, error) {
	return s.repo.Get(ctx, userID, id)
}

// Activate makes the plan the user's single active plan. A previously
// active plan is archived, never silently completed.
func (s *Service) Activate(ctx context.Context, userID int64, id string) (*Plan, error) {
	p, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if p.Status != StatusGenerated && p.Status != StatusArchived {
		return nil, ErrNotActivatable
	}

	now := s.now()
	if err := s.repo.Activate(ctx, userID, id, now); err != nil {
		return nil, fmt.Errorf("activating plan: %w", err)
	}

	p.Status = StatusActive
	p.UpdatedAt = now

	return p, nil
}

type UpdateParams struct {
	SavedSoFar      *decimal.Decimal
	ActionsProgress []ActionProgress
}

// Update records progress on an active plan.
func (s *Service) Update(ctx context.Context, userID int64, id string, params UpdateParams) (*Plan, error) {
	p, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if p.Status != StatusActive {
		return nil, ErrNotActive
	}

	if params.SavedSoFar != nil {
		if params.SavedSoFar.IsNegative() {
			return nil, ErrNegativeSaved
		}

		p.SavedSoFar = *params.SavedSoFar
	}

	if params.ActionsProgress != nil {
		if len(params.ActionsProgress) != len(p.Actions) {
			return nil, ErrBadProgressShape
		}

		p.ActionsProgress = params.ActionsProgress
	}

	p.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("updating plan: %w", err)
	}

	return p, nil
}

// Complete closes out an active plan.
func (s *Service) Complete(ctx context.Context, userID int64, id string) (*Plan, error) {
	p, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if p.Status != StatusActive {
		return nil, ErrNotActive
	}

	p.Status = StatusCompleted
	p.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("completing plan: %w", err)
	}

	return p, nil
}

func (s *Service) Delete(ctx context.Context, userID int64, id string) error {
	return s.repo.Delete(ctx, userID, id)
}
