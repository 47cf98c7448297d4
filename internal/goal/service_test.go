package goal_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/clairehq/claire/internal/goal"
)

func newService(t *testing.T) (*goal.Service, *goal.MockRepository) {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	repo := goal.NewMockRepository(ctrl)

	return goal.NewService(repo), repo
}

func TestService_Create(t *testing.T) {
	svc, repo := newService(t)

	repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	g, err := svc.Create(context.Background(), 1, goal.CreateParams{
		Name:         "Emergency fund",
		TargetAmount: decimal.NewFromInt(5000),
		CurrentSaved: decimal.NewFromInt(1200),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, g.ID)
	assert.Equal(t, int64(1), g.UserID)
	assert.Equal(t, goal.DefaultBanner, g.Banner)
	assert.Equal(t, 24, g.ProgressPercent())
}

func TestService_Create_Validation(t *testing.T) {
	svc, _ := newService(t)

	tests := []struct {
		name    string
		params  goal.CreateParams
		wantErr error
	}{
		{
			name:    "EmptyName",
			params:  goal.CreateParams{TargetAmount: decimal.NewFromInt(100)},
			wantErr: goal.ErrEmptyName,
		},
		{
			name:    "ZeroTarget",
			params:  goal.CreateParams{Name: "Trip"},
			wantErr: goal.ErrInvalidTarget,
		},
		{
			name: "SavedAboveTarget",
			params: goal.CreateParams{
				Name:         "Trip",
				TargetAmount: decimal.NewFromInt(100),
				CurrentSaved: decimal.NewFromInt(101),
			},
			wantErr: goal.ErrSavedOverflow,
		},
		{
			name: "NegativeSaved",
			params: goal.CreateParams{
				Name:         "Trip",
				TargetAmount: decimal.NewFromInt(100),
				CurrentSaved: decimal.NewFromInt(-1),
			},
			wantErr: goal.ErrNegativeSaved,
		},
		{
			name: "UnknownBanner",
			params: goal.CreateParams{
				Name:         "Trip",
				TargetAmount: decimal.NewFromInt(100),
				Banner:       goal.Banner("banner_99"),
			},
			wantErr: goal.ErrUnknownBanner,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), 1, tt.params)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestService_Update_InvariantHoldsAfterPatch(t *testing.T) {
	svc, repo := newService(t)

	existing := func() *goal.Goal {
		return &goal.Goal{
			ID:           "g1",
			UserID:       1,
			Name:         "Trip",
			TargetAmount: decimal.NewFromInt(1000),
			CurrentSaved: decimal.NewFromInt(800),
			Banner:       goal.Banner2,
		}
	}

	// Raising saved above the target fails.
	repo.EXPECT().Get(gomock.Any(), int64(1), "g1").Return(existing(), nil)

	over := decimal.NewFromInt(1200)
	_, err := svc.Update(context.Background(), 1, "g1", goal.UpdateParams{CurrentSaved: &over})
	assert.ErrorIs(t, err, goal.ErrSavedOverflow)

	// Lowering the target below saved fails the same way.
	repo.EXPECT().Get(gomock.Any(), int64(1), "g1").Return(existing(), nil)

	lowTarget := decimal.NewFromInt(500)
	_, err = svc.Update(context.Background(), 1, "g1", goal.UpdateParams{TargetAmount: &lowTarget})
	assert.ErrorIs(t, err, goal.ErrSavedOverflow)

	// A consistent patch goes through.
	repo.EXPECT().Get(gomock.Any(), int64(1), "g1").Return(existing(), nil)
	repo.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)

	saved := decimal.NewFromInt(1000)
	g, err := svc.Update(context.Background(), 1, "g1", goal.UpdateParams{CurrentSaved: &saved})
	require.NoError(t, err)
	assert.Equal(t, 100, g.ProgressPercent())
	assert.False(t, g.UpdatedAt.IsZero())
}

func TestGoal_ProgressPercent(t *testing.T) {
	tests := []struct {
		name   string
		target int64
		saved  int64
		want   int
	}{
		{"Zero", 100, 0, 0},
		{"Partial", 300, 100, 33},
		{"RoundsHalfUp", 1000, 125, 13},
		{"Full", 100, 100, 100},
		{"ZeroTargetGuard", 0, 50, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &goal.Goal{
				TargetAmount: decimal.NewFromInt(tt.target),
				CurrentSaved: decimal.NewFromInt(tt.saved),
			}
			assert.Equal(t, tt.want, g.ProgressPercent())
		})
	}
}
