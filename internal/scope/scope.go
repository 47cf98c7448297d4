// Package scope models what slice of data the dashboard is looking at:
// either a single uploaded statement or a date range. A scope is replaced
// wholesale, never mutated, so screens can compare values to detect changes.
package scope

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/clairehq/claire/internal/upload"
)

var ErrInvalidRange = errors.New("range start must not be after end")

// Kind discriminates the scope union.
type Kind int

const (
	// KindNone means no scope filter: queries see all data.
	KindNone Kind = iota
	KindStatement
	KindRange
)

type Scope struct {
	kind   Kind
	fileID string
	start  time.Time
	end    time.Time
}

// ForStatement scopes queries to one uploaded statement.
func ForStatement(fileID string) Scope {
	return Scope{kind: KindStatement, fileID: fileID}
}

// ForRange scopes queries to a date range, inclusive on both ends.
func ForRange(start, end time.Time) (Scope, error) {
	if start.After(end) {
		return Scope{}, ErrInvalidRange
	}

	return Scope{kind: KindRange, start: start, end: end}, nil
}

func (s Scope) Kind() Kind { return s.kind }

// FileID returns the statement id and whether this is a statement scope.
func (s Scope) FileID() (string, bool) {
	return s.fileID, s.kind == KindStatement
}

// Range returns the bounds and whether this is a range scope.
func (s Scope) Range() (start, end time.Time, ok bool) {
	return s.start, s.end, s.kind == KindRange
}

// Query translates the scope into request parameters. The translation is
// pure: the same scope always produces the same values.
func (s Scope) Query() url.Values {
	values := url.Values{}

	switch s.kind {
	case KindStatement:
		values.Set("file_id", s.fileID)
	case KindRange:
		values.Set("start_date", s.start.Format(time.DateOnly))
		values.Set("end_date", s.end.Format(time.DateOnly))
	}

	return values
}

func (s Scope) String() string {
	switch s.kind {
	case KindStatement:
		return fmt.Sprintf("statement %s", s.fileID)
	case KindRange:
		return fmt.Sprintf("%s to %s", s.start.Format(time.DateOnly), s.end.Format(time.DateOnly))
	default:
		return "all data"
	}
}

// Preset is a named relative date range.
type Preset string

const (
	PresetLast30Days Preset = "last_30_days"
	PresetLast90Days Preset = "last_90_days"
	PresetThisMonth  Preset = "this_month"
	PresetLastMonth  Preset = "last_month"
	PresetThisYear   Preset = "this_year"
)

// Presets lists the supported presets in menu order.
var Presets = []Preset{
	PresetLast30Days,
	PresetLast90Days,
	PresetThisMonth,
	PresetLastMonth,
	PresetThisYear,
}

// Expand resolves a preset against the given clock. Unknown presets expand
// to the last 30 days.
func (p Preset) Expand(now time.Time) Scope {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var start, end time.Time

	switch p {
	case PresetLast90Days:
		start, end = today.AddDate(0, 0, -90), today
	case PresetThisMonth:
		start = time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		end = today
	case PresetLastMonth:
		firstOfThis := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		start = firstOfThis.AddDate(0, -1, 0)
		end = firstOfThis.AddDate(0, 0, -1)
	case PresetThisYear:
		start = time.Date(today.Year(), 1, 1, 0, 0, 0, 0, today.Location())
		end = today
	default:
		start, end = today.AddDate(0, 0, -30), today
	}

	return Scope{kind: KindRange, start: start, end: end}
}

// Label is the preset's human-readable menu text.
func (p Preset) Label() string {
	switch p {
	case PresetLast30Days:
		return "Last 30 days"
	case PresetLast90Days:
		return "Last 90 days"
	case PresetThisMonth:
		return "This month"
	case PresetLastMonth:
		return "Last month"
	case PresetThisYear:
		return "This year"
	default:
		return string(p)
	}
}

// Default picks the starting scope for a fresh session: the newest upload,
// or no scope when the user has none.
func Default(uploads []*upload.Upload) Scope {
	if len(uploads) == 0 {
		return Scope{}
	}

	newest := uploads[0]
	for _, up := range uploads[1:] {
		if up.CreatedAt.After(newest.CreatedAt) {
			newest = up
		}
	}

	return ForStatement(newest.ID)
}
