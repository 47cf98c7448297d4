package view

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/clairehq/claire/internal/client"
	"github.com/clairehq/claire/internal/scope"
)

// InsightsModel shows the generated insights grouped by type and can
// trigger a fresh analysis for the current scope.
type InsightsModel struct {
	CommonModel
	api *client.Client

	scope      scope.Scope
	generation int

	insights *client.InsightsList
	loading  bool
	status   string
	err      error
}

func NewInsightsModel(api *client.Client, s scope.Scope) InsightsModel {
	return InsightsModel{api: api, scope: s, loading: true}
}

func (m InsightsModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m InsightsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case insightsLoadedMsg:
		if msg.generation != m.generation {
			return m, nil
		}

		m.loading = false

		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.err = nil
		m.insights = msg.insights

		return m, nil

	case analyzeDoneMsg:
		m.loading = false

		if msg.err != nil {
			m.status = fmt.Sprintf("Analysis failed: %v", msg.err)
			return m, nil
		}

		m.status = fmt.Sprintf("Generated %d insights", msg.result.InsightsGenerated)
		m.loading = true

		return m, m.loadCmd()

	case ScopeSelectedMsg:
		m.scope = msg.Scope
		m.generation++
		m.loading = true

		return m, m.loadCmd()

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			// Retry re-issues the identical request.
			m.generation++
			m.loading = true

			return m, m.loadCmd()
		case "a":
			if m.scope.Kind() == scope.KindNone {
				m.status = "Analysis needs a statement or range scope"
				return m, nil
			}

			m.loading = true
			m.status = "Analyzing..."

			return m, m.analyzeCmd()
		}
	}

	return m, nil
}

func (m InsightsModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading insights...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(
			"Failed to load insights\n\n(r to retry, Esc to back)")
	}

	var b strings.Builder

	b.WriteString(fmt.Sprintf("Insights — %s\n\n", m.scope))

	if m.insights == nil || m.insights.Count == 0 {
		b.WriteString("No insights yet. Press a to analyze the current scope.\n")
	} else {
		b.WriteString(renderGroup("Patterns", m.insights.Patterns))
		b.WriteString(renderGroup("Alerts", m.insights.Alerts))
		b.WriteString(renderGroup("Recommendations", m.insights.Recommendations))
	}

	b.WriteString("\n(a: analyze, r: refresh, Esc: back)")

	content := b.String()
	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(content)
}

func renderGroup(title string, insights []client.Insight) string {
	if len(insights) == 0 {
		return ""
	}

	var b strings.Builder

	b.WriteString(lipgloss.NewStyle().Bold(true).Render(title))
	b.WriteString("\n")

	for _, ins := range insights {
		b.WriteString(fmt.Sprintf("  • %s — %s\n", ins.Title, ins.Description))
	}

	b.WriteString("\n")

	return b.String()
}

type insightsLoadedMsg struct {
	generation int
	insights   *client.InsightsList
	err        error
}

func (m InsightsModel) loadCmd() tea.Cmd {
	generation := m.generation

	var start, end *time.Time
	if s, e, ok := m.scope.Range(); ok {
		start, end = &s, &e
	}

	return func() tea.Msg {
		ctx, cancel := ApiCtx()
		defer cancel()

		insights, err := m.api.Insights(ctx, start, end)

		return insightsLoadedMsg{generation: generation, insights: insights, err: err}
	}
}

type analyzeDoneMsg struct {
	result *client.AnalyzeResult
	err    error
}

func (m InsightsModel) analyzeCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := ApiCtx()
		defer cancel()

		result, err := m.api.AnalyzeInsights(ctx, m.scope)

		return analyzeDoneMsg{result: result, err: err}
	}
}
