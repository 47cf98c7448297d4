package view

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clairehq/claire/internal/client"
	"github.com/clairehq/claire/internal/scope"
)

func TestInsightsModel_FetchFailureOffersRetry(t *testing.T) {
	var requests []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.URL.String())
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"boom"}`))
	}))
	defer srv.Close()

	s, err := scope.ForRange(
		time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)

	m := NewInsightsModel(client.New(srv.URL, "token"), s)

	cmd := m.Init()
	require.NotNil(t, cmd)

	model, _ := m.Update(cmd())
	m = model.(InsightsModel)

	assert.Contains(t, m.View(), "Failed to load insights")

	// Retry re-issues the identical request.
	model, retry := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	m = model.(InsightsModel)
	require.NotNil(t, retry)

	retry()

	require.Len(t, requests, 2)
	assert.Equal(t, requests[0], requests[1])
}
