// Package insight generates and serves spending insights for the dashboard.
package insight

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("insight not found")
	// ErrHalfRange is returned when only one end of a time range filter is
	// given; callers must pass both or neither.
	ErrHalfRange    = errors.New("time range filter needs both start and end")
	ErrInvalidRange = errors.New("range start must not be after end")
	// ErrNoScope is returned when an analysis request names neither a file
	// nor a date range.
	ErrNoScope = errors.New("analysis needs a file or a date range")
)

// Type buckets an insight for the dashboard's grouped view.
type Type string

const (
	TypePattern        Type = "pattern"
	TypeAlert          Type = "alert"
	TypeRecommendation Type = "recommendation"
)

// icons is the closed set the frontend can render.
var icons = map[string]struct{}{
	"trending_up":    {},
	"trending_down":  {},
	"alert_triangle": {},
	"lightbulb":      {},
	"calendar":       {},
	"credit_card":    {},
	"piggy_bank":     {},
}

const defaultIcon = "lightbulb"

// NormalizeIcon maps model output onto the renderable icon set.
func NormalizeIcon(raw string) string {
	if _, ok := icons[raw]; ok {
		return raw
	}

	return defaultIcon
}

// Insight is one generated observation about the user's finances.
type Insight struct {
	ID          string
	UserID      int64
	Type        Type
	Title       string
	Description string
	Icon        string
	Confidence  float64

	// The data window the insight was derived from, when it has one.
	TimeRangeStart *time.Time
	TimeRangeEnd   *time.Time

	CreatedAt time.Time
}

// Grouped is the dashboard's view of a user's insights.
type Grouped struct {
	Patterns        []*Insight
	Alerts          []*Insight
	Recommendations []*Insight
}
