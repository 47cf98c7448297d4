// Package plan manages earn-extra plans: short, model-generated playbooks a
// user can activate and track against a savings target.
package plan

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound         = errors.New("plan not found")
	ErrNotActivatable   = errors.New("only generated or archived plans can be activated")
	ErrNotActive        = errors.New("plan is not active")
	ErrNegativeSaved    = errors.New("saved amount cannot be negative")
	ErrBadProgressShape = errors.New("progress must cover exactly the plan's actions")
	ErrBadTimeframe     = errors.New("timeframe must be between 1 and 365 days")
	ErrNegativeTarget   = errors.New("target amount cannot be negative")
)

// ActionCount is how many concrete actions every plan carries.
const ActionCount = 3

// PlanCount is how many candidate plans a generation run produces.
const PlanCount = 3

// Status is a plan's lifecycle state. At most one plan per user is active.
type Status string

const (
	StatusGenerated Status = "generated"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusArchived  Status = "archived"
)

func (s Status) Valid() bool {
	switch s {
	case StatusGenerated, StatusActive, StatusCompleted, StatusArchived:
		return true
	}

	return false
}

// ActionType categorizes how an action moves the user toward the target.
type ActionType string

const (
	ActionCutSpend       ActionType = "cut_spend"
	ActionShiftSpend     ActionType = "shift_spend"
	ActionIncreaseIncome ActionType = "increase_income"
	ActionOneTimeCleanup ActionType = "one_time_cleanup"
)

func (t ActionType) Valid() bool {
	switch t {
	case ActionCutSpend, ActionShiftSpend, ActionIncreaseIncome, ActionOneTimeCleanup:
		return true
	}

	return false
}

// Confidence is the model's own estimate of how realistic a plan is.
type Confidence string

const (
	ConfidenceLow  Confidence = "low"
	ConfidenceMed  Confidence = "med"
	ConfidenceHigh Confidence = "high"
)

// Action is one concrete step of a plan.
type Action struct {
	Label           string           `json:"label"`
	Type            ActionType       `json:"type"`
	WeeklyFrequency *int             `json:"weekly_frequency,omitempty"`
	EstimatedValue  *decimal.Decimal `json:"estimated_value,omitempty"`
}

// ActionProgress tracks one action's completion.
type ActionProgress struct {
	IsDone bool    `json:"is_done"`
	Notes  *string `json:"notes"`
}

type Plan struct {
	ID              string
	UserID          int64
	FileID          *string
	Status          Status
	TargetAmount    decimal.Decimal
	Currency        string
	TimeframeDays   int
	Title           string
	Summary         string
	Actions         []Action
	ExpectedAmount  decimal.Decimal
	Confidence      Confidence
	SavedSoFar      decimal.Decimal
	ActionsProgress []ActionProgress
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CompletedActions counts ticked-off actions.
func (p *Plan) CompletedActions() int {
	n := 0

	for _, ap := range p.ActionsProgress {
		if ap.IsDone {
			n++
		}
	}

	return n
}

// NewProgress returns an all-unchecked progress list of the canonical shape.
func NewProgress() []ActionProgress {
	return make([]ActionProgress, ActionCount)
}
