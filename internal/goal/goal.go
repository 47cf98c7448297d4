// Package goal manages savings goals.
package goal

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound      = errors.New("goal not found")
	ErrEmptyName     = errors.New("goal name is required")
	ErrInvalidTarget = errors.New("target amount must be positive")
	ErrSavedOverflow = errors.New("saved amount cannot exceed the target")
	ErrNegativeSaved = errors.New("saved amount cannot be negative")
	ErrUnknownBanner = errors.New("unknown banner")
)

// Banner selects the goal card's artwork.
type Banner string

const (
	Banner1 Banner = "banner_1"
	Banner2 Banner = "banner_2"
	Banner3 Banner = "banner_3"
	Banner4 Banner = "banner_4"
)

// DefaultBanner is used when a goal is created without one.
const DefaultBanner = Banner1

func (b Banner) Valid() bool {
	switch b {
	case Banner1, Banner2, Banner3, Banner4:
		return true
	}

	return false
}

type Goal struct {
	ID           string
	UserID       int64
	Name         string
	TargetAmount decimal.Decimal
	CurrentSaved decimal.Decimal
	Banner       Banner
	TargetDate   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ProgressPercent reports how far along the goal is, as a whole number
// clamped to [0, 100].
func (g *Goal) ProgressPercent() int {
	if !g.TargetAmount.IsPositive() {
		return 0
	}

	pct := g.CurrentSaved.
		Div(g.TargetAmount).
		Mul(decimal.NewFromInt(100)).
		Round(0).
		IntPart()

	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	}

	return int(pct)
}
