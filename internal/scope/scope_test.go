package scope_test

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clairehq/claire/internal/scope"
	"github.com/clairehq/claire/internal/upload"
)

func TestQuery(t *testing.T) {
	ranged, err := scope.ForRange(
		time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)

	tests := []struct {
		name string
		s    scope.Scope
		want url.Values
	}{
		{"Statement", scope.ForStatement("file-1"), url.Values{"file_id": {"file-1"}}},
		{"Range", ranged, url.Values{"start_date": {"2026-06-01"}, "end_date": {"2026-08-30"}}},
		{"None", scope.Scope{}, url.Values{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.s.Query())
			// Translation is pure.
			assert.Equal(t, tt.s.Query(), tt.s.Query())
		})
	}
}

func TestForRange_RejectsInvertedRange(t *testing.T) {
	_, err := scope.ForRange(
		time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
	)
	assert.ErrorIs(t, err, scope.ErrInvalidRange)

	// A single-day range is fine.
	day := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	_, err = scope.ForRange(day, day)
	assert.NoError(t, err)
}

func TestPreset_Expand(t *testing.T) {
	now := time.Date(2026, 8, 30, 15, 42, 0, 0, time.UTC)

	tests := []struct {
		preset     scope.Preset
		start, end string
	}{
		{scope.PresetLast30Days, "2026-07-31", "2026-08-30"},
		{scope.PresetLast90Days, "2026-06-01", "2026-08-30"},
		{scope.PresetThisMonth, "2026-08-01", "2026-08-30"},
		{scope.PresetLastMonth, "2026-07-01", "2026-07-31"},
		{scope.PresetThisYear, "2026-01-01", "2026-08-30"},
	}

	for _, tt := range tests {
		t.Run(string(tt.preset), func(t *testing.T) {
			s := tt.preset.Expand(now)

			start, end, ok := s.Range()
			require.True(t, ok)
			assert.Equal(t, tt.start, start.Format(time.DateOnly))
			assert.Equal(t, tt.end, end.Format(time.DateOnly))
		})
	}
}

func TestPreset_Expand_LastMonthAcrossYear(t *testing.T) {
	s := scope.PresetLastMonth.Expand(time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC))

	start, end, ok := s.Range()
	require.True(t, ok)
	assert.Equal(t, "2025-12-01", start.Format(time.DateOnly))
	assert.Equal(t, "2025-12-31", end.Format(time.DateOnly))
}

func TestDefault(t *testing.T) {
	older := &upload.Upload{ID: "old", CreatedAt: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)}
	newer := &upload.Upload{ID: "new", CreatedAt: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)}

	s := scope.Default([]*upload.Upload{older, newer})

	fileID, ok := s.FileID()
	require.True(t, ok)
	assert.Equal(t, "new", fileID)

	assert.Equal(t, scope.KindNone, scope.Default(nil).Kind())
}
