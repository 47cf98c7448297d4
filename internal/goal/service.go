package goal

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=goal
type Repository interface {
	Create(ctx context.Context, g *Goal) error
	Get(ctx context.Context, userID int64, id string) (*Goal, error)
	List(ctx context.Context, userID int64) ([]*Goal, error)
	Update(ctx context.Context, g *Goal) error
	Delete(ctx context.Context, userID int64, id string) error
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

type CreateParams struct {
	Name         string
	TargetAmount decimal.Decimal
	CurrentSaved decimal.Decimal
	Banner       Banner
	TargetDate   *time.Time
}

func (s *Service) Create(ctx context.Context, userID int64, params CreateParams) (*Goal, error) {
	if params.Banner == "" {
		params.Banner = DefaultBanner
	}

	g := &Goal{
		ID:           uuid.NewString(),
		UserID:       userID,
		Name:         params.Name,
		TargetAmount: params.TargetAmount,
		CurrentSaved: params.CurrentSaved,
		Banner:       params.Banner,
		TargetDate:   params.TargetDate,
	}

	if err := validate(g); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, g); err != nil {
		return nil, err
	}

	return g, nil
}

type UpdateParams struct {
	Name         *string
	TargetAmount *decimal.Decimal
	CurrentSaved *decimal.Decimal
	Banner       *Banner
	TargetDate   *time.Time
}

// Update applies a partial update. The saved-within-target invariant is
// checked against the resulting state, so lowering the target below the
// saved amount fails the same way as raising the saved amount above it.
func (s *Service) Update(ctx context.Context, userID int64, id string, params UpdateParams) (*Goal, error) {
	g, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if params.Name != nil {
		g.Name = *params.Name
	}

	if params.TargetAmount != nil {
		g.TargetAmount = *params.TargetAmount
	}

	if params.CurrentSaved != nil {
		g.CurrentSaved = *params.CurrentSaved
	}

	if params.Banner != nil {
		g.Banner = *params.Banner
	}

	if params.TargetDate != nil {
		g.TargetDate = params.TargetDate
	}

	if err := validate(g); err != nil {
		return nil, err
	}

	g.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, g); err != nil {
		return nil, err
	}

	return g, nil
}

func (s *Service) Get(ctx context.Context, userID int64, id string) (*Goal, error) {
	return s.repo.Get(ctx, userID, id)
}

func (s *Service) List(ctx context.Context, userID int64) ([]*Goal, error) {
	return s.repo.List(ctx, userID)
}

func (s *Service) Delete(ctx context.Context, userID int64, id string) error {
	return s.repo.Delete(ctx, userID, id)
}

func validate(g *Goal) error {
	switch {
	case g.Name == "":
		return ErrEmptyName
	case !g.TargetAmount.IsPositive():
		return ErrInvalidTarget
	case g.CurrentSaved.IsNegative():
		return ErrNegativeSaved
	case g.CurrentSaved.GreaterThan(g.TargetAmount):
		return ErrSavedOverflow
	case !g.Banner.Valid():
		return ErrUnknownBanner
	}

	return nil
}
