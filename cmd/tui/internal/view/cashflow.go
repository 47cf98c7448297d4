package view

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/clairehq/claire/internal/client"
	"github.com/clairehq/claire/internal/scope"
)

const barWidth = 40

// sampleSankey is shown when the live fetch fails, so the screen stays
// demonstrable offline. The error banner makes the substitution obvious.
var sampleSankey = client.SankeyData{
	Nodes: []client.SankeyNode{
		{ID: "in_salary", Label: "Salary", Type: "source"},
		{ID: "acct", Label: "Account", Type: "account"},
		{ID: "cat_housing", Label: "Housing", Type: "sink"},
		{ID: "cat_groceries", Label: "Groceries", Type: "sink"},
		{ID: "cat_subscriptions", Label: "Subscriptions", Type: "sink"},
	},
	Links: []client.SankeyLink{
		{Source: "in_salary", Target: "acct", Value: 3000},
		{Source: "acct", Target: "cat_housing", Value: 1200},
		{Source: "acct", Target: "cat_groceries", Value: 450},
		{Source: "acct", Target: "cat_subscriptions", Value: 60},
	},
}

// CashflowModel renders the sankey aggregates as horizontal bars: inflows
// into the account on top, outflows by category below.
type CashflowModel struct {
	CommonModel
	api *client.Client

	scope scope.Scope
	// generation guards against a stale response landing after the scope
	// changed: only the latest fetch may update the screen.
	generation int

	data    *client.SankeyData
	sample  bool
	loading bool
	err     error
}

func NewCashflowModel(api *client.Client, s scope.Scope) CashflowModel {
	return CashflowModel{api: api, scope: s, loading: true}
}

func (m CashflowModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m CashflowModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case sankeyLoadedMsg:
		if msg.generation != m.generation {
			return m, nil
		}

		m.loading = false

		if msg.err != nil {
			m.err = msg.err
			m.data = &sampleSankey
			m.sample = true

			return m, nil
		}

		m.err = nil
		m.sample = false
		m.data = msg.data

		return m, nil

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
			m.generation++
			m.loading = true

			return m, m.loadCmd()
		}
	}

	return m, nil
}

func (m CashflowModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading cash flow...")
	}

	var b strings.Builder

	b.WriteString(fmt.Sprintf("Cash Flow — %s\n\n", m.scope))

	if m.err != nil {
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("196")).
			Render(fmt.Sprintf("Error: %v — showing sample data (r to retry)", m.err)))
		b.WriteString("\n\n")
	}

	if m.data == nil || len(m.data.Links) == 0 {
		b.WriteString("No cash flow for this scope.\n")
	} else {
		b.WriteString(renderFlows(m.data))
	}

	b.WriteString("\n(r: refresh, Esc: back)")

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func renderFlows(data *client.SankeyData) string {
	labels := make(map[string]string, len(data.Nodes))
	for _, n := range data.Nodes {
		labels[n.ID] = n.Label
	}

	var inflows, outflows []client.SankeyLink
	var maxValue float64

	for _, l := range data.Links {
		if l.Target == "acct" {
			inflows = append(inflows, l)
		} else {
			outflows = append(outflows, l)
		}

		if l.Value > maxValue {
			maxValue = l.Value
		}
	}

	var b strings.Builder

	b.WriteString("Money In\n")
	for _, l := range inflows {
		b.WriteString(renderBar(labels[l.Source], l.Value, maxValue, "42"))
	}

	b.WriteString("\nMoney Out\n")
	for _, l := range outflows {
		b.WriteString(renderBar(labels[l.Target], l.Value, maxValue, "203"))
	}

	return b.String()
}

func renderBar(label string, value, maxValue float64, color string) string {
	width := 1
	if maxValue > 0 {
		width = int(value / maxValue * barWidth)
		if width < 1 {
			width = 1
		}
	}

	bar := lipgloss.NewStyle().
		Foreground(lipgloss.Color(color)).
		Render(strings.Repeat("█", width))

	return fmt.Sprintf("%-18s %s %.2f\n", label, bar, value)
}

type sankeyLoadedMsg struct {
	generation int
	data       *client.SankeyData
	err        error
}

func (m CashflowModel) loadCmd() tea.Cmd {
	generation := m.generation

	return func() tea.Msg {
		ctx, cancel := ApiCtx()
		defer cancel()

		data, err := m.api.Sankey(ctx, m.scope)

		return sankeyLoadedMsg{generation: generation, data: data, err: err}
	}
}
