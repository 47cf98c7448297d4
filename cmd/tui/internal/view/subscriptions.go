package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/clairehq/claire/internal/client"
	"github.com/clairehq/claire/internal/scope"
)

type subsState int

const (
	subsStateBrowse subsState = iota
	subsStateReview
)

// SubscriptionsModel shows merchant-level subscription rollups for the
// current scope and runs the needs-review queue one candidate at a time.
// Detection runs over a date range, so it is disabled for statement scopes.
type SubscriptionsModel struct {
	CommonModel
	api *client.Client

	scope      scope.Scope
	generation int
	state      subsState

	table table.Model
	aggs  []client.SubscriptionAggregate

	// The queue holds one candidate at a time. Every decision triggers a
	// fresh fetch, so decisions elsewhere are picked up immediately.
	candidate *client.Transaction

	loading bool
	status  string
	err     error
}

func NewSubscriptionsModel(api *client.Client, s scope.Scope) SubscriptionsModel {
	columns := []table.Column{
		{Title: "Name", Width: 24},
		{Title: "Status", Width: 12},
		{Title: "Monthly", Width: 12},
		{Title: "Confidence", Width: 10},
		{Title: "Last charged", Width: 12},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	st := table.DefaultStyles()
	st.Header = st.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	st.Selected = st.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(st)

	return SubscriptionsModel{api: api, scope: s, table: t, loading: s.Kind() != scope.KindStatement}
}

// The aggregated endpoint rolls charges up per month, so it only makes
// sense over a date range. Statement scopes skip the fetch entirely.
func (m SubscriptionsModel) Init() tea.Cmd {
	if m.scope.Kind() == scope.KindStatement {
		return nil
	}

	return m.loadAggregatesCmd()
}

func (m SubscriptionsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case aggregatesLoadedMsg:
		if msg.generation != m.generation {
			return m, nil
		}

		m.loading = false

		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.err = nil
		m.aggs = msg.aggs
		m.refreshTable()

		return m, nil

	case classifyDoneMsg:
		m.loading = false

		if msg.err != nil {
			m.status = fmt.Sprintf("Detection failed: %v", msg.err)
			return m, nil
		}

		m.status = fmt.Sprintf("Scanned %d transactions: %d subscriptions, %d need review",
			msg.summary.Processed, msg.summary.SubscriptionsFound, msg.summary.NeedsReview)
		m.loading = true

		return m, m.loadAggregatesCmd()

	case candidateLoadedMsg:
		m.loading = false

		if msg.err != nil {
			m.status = fmt.Sprintf("Review fetch failed: %v", msg.err)
			m.state = subsStateBrowse

			return m, nil
		}

		if msg.candidate == nil {
			m.status = "Nothing left to review"
			m.state = subsStateBrowse
			m.candidate = nil

			if m.scope.Kind() == scope.KindStatement {
				m.loading = false
				return m, nil
			}

			m.loading = true

			return m, m.loadAggregatesCmd()
		}

		m.candidate = msg.candidate

		return m, nil

	case reviewDoneMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Review failed: %v", msg.err)
			m.state = subsStateBrowse

			return m, nil
		}

		// Advance by refetching, never by popping a local list.
		m.loading = true

		return m, m.loadCandidateCmd()

	case ScopeSelectedMsg:
		m.scope = msg.Scope
		m.generation++
		m.state = subsStateBrowse
		m.aggs = nil
		m.table.SetRows(nil)

		if m.scope.Kind() == scope.KindStatement {
			m.loading = false
			return m, nil
		}

		m.loading = true

		return m, m.loadAggregatesCmd()
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if m.state == subsStateReview {
			return m.updateReview(keyMsg)
		}

		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			if m.scope.Kind() == scope.KindStatement {
				return m, nil
			}

			m.generation++
			m.loading = true

			return m, m.loadAggregatesCmd()
		case "d":
			if _, _, ok := m.scope.Range(); !ok {
				m.status = "Detection needs a date-range scope"
				return m, nil
			}

			m.loading = true
			m.status = "Running detection..."

			return m, m.classifyCmd()
		case "v":
			m.state = subsStateReview
			m.loading = true

			return m, m.loadCandidateCmd()
		}

		var cmd tea.Cmd
		m.table, cmd = m.table.Update(keyMsg)

		return m, cmd
	}

	return m, nil
}

func (m SubscriptionsModel) updateReview(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.loading {
		return m, nil
	}

	switch msg.String() {
	case "esc":
		m.state = subsStateBrowse
		m.candidate = nil

		if m.scope.Kind() == scope.KindStatement {
			m.loading = false
			return m, nil
		}

		m.loading = true

		return m, m.loadAggregatesCmd()
	case "y":
		if m.candidate != nil {
			m.loading = true
			return m, m.reviewCmd(m.candidate.ID, "confirmed")
		}
	case "n":
		if m.candidate != nil {
			m.loading = true
			return m, m.reviewCmd(m.candidate.ID, "rejected")
		}
	}

	return m, nil
}

func (m SubscriptionsModel) View() string {
	if m.state == subsStateReview {
		return m.reviewView()
	}

	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading subscriptions...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(
			fmt.Sprintf("Error: %v\n\n(r to retry, Esc to back)", m.err))
	}

	if m.scope.Kind() == scope.KindStatement {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf(
			"Subscriptions — %s\n\nMonthly rollups need a date-range scope.\nPick a range on the statements screen.\n\n(v: review queue, Esc: back)",
			m.scope))
	}

	header := fmt.Sprintf("Subscriptions — %s\nMonthly total: %s\n",
		m.scope, FormatAmount(monthlyTotal(m.aggs), currencyOf(m.aggs)))

	detectHelp := "d: detect"
	if _, _, ok := m.scope.Range(); !ok {
		detectHelp = lipgloss.NewStyle().Faint(true).Render("d: detect (range scope only)")
	}

	help := fmt.Sprintf("v: review queue | %s | r: refresh | Esc: back", detectHelp)

	content := lipgloss.JoinVertical(lipgloss.Left,
		header,
		lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			Render(m.table.View()),
		lipgloss.NewStyle().Faint(true).Render(help),
	)

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m SubscriptionsModel) reviewView() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading review queue...")
	}

	if m.candidate == nil {
		return lipgloss.NewStyle().Padding(2).Render("Nothing to review.\n\n(Esc to back)")
	}

	c := m.candidate

	name := c.SubscriptionName
	if name == "" {
		name = c.MerchantName
	}

	confidence := "unknown"
	if c.SubscriptionConfidence != nil {
		confidence = fmt.Sprintf("%s (%.2f)", ConfidenceBadge(*c.SubscriptionConfidence), *c.SubscriptionConfidence)
	}

	var b strings.Builder

	b.WriteString("Is this a subscription?\n\n")
	b.WriteString(fmt.Sprintf("Name:       %s\n", name))
	b.WriteString(fmt.Sprintf("Date:       %s\n", c.TransactionDate))
	b.WriteString(fmt.Sprintf("Amount:     %s\n", FormatAmount(c.Amount, c.Currency)))
	b.WriteString(fmt.Sprintf("Confidence: %s\n", confidence))

	if len(c.SubscriptionReasonCodes) > 0 {
		b.WriteString(fmt.Sprintf("Signals:    %s\n", strings.Join(c.SubscriptionReasonCodes, ", ")))
	}

	b.WriteString("\n(y: confirm, n: dismiss, Esc: back)")

	return lipgloss.NewStyle().Padding(2).Render(b.String())
}

// monthlyTotal sums the average monthly charge across all rollups.
func monthlyTotal(aggs []client.SubscriptionAggregate) decimal.Decimal {
	total := decimal.Zero
	for _, agg := range aggs {
		total = total.Add(agg.AverageMonthlyAmount)
	}

	return total
}

func currencyOf(aggs []client.SubscriptionAggregate) string {
	for _, agg := range aggs {
		if agg.Currency != "" {
			return agg.Currency
		}
	}

	return ""
}

func (m *SubscriptionsModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.aggs))

	for _, agg := range m.aggs {
		rows = append(rows, table.Row{
			agg.Name,
			agg.Status,
			FormatAmount(agg.AverageMonthlyAmount, agg.Currency),
			ConfidenceBadge(agg.ConfidenceAvg),
			agg.LastChargedAt,
		})
	}

	m.table.SetRows(rows)
}

type aggregatesLoadedMsg struct {
	generation int
	aggs       []client.SubscriptionAggregate
	err        error
}

func (m SubscriptionsModel) loadAggregatesCmd() tea.Cmd {
	generation := m.generation

	return func() tea.Msg {
		ctx, cancel := ApiCtx()
		defer cancel()

		aggs, err := m.api.AggregatedSubscriptions(ctx, m.scope)

		return aggregatesLoadedMsg{generation: generation, aggs: aggs, err: err}
	}
}

type classifyDoneMsg struct {
	summary *client.ClassifySummary
	err     error
}

func (m SubscriptionsModel) classifyCmd() tea.Cmd {
	start, end, _ := m.scope.Range()

	return func() tea.Msg {
		ctx, cancel := ApiCtx()
		defer cancel()

		summary, err := m.api.ClassifySubscriptions(ctx, start, end)

		return classifyDoneMsg{summary: summary, err: err}
	}
}

type candidateLoadedMsg struct {
	candidate *client.Transaction
	err       error
}

func (m SubscriptionsModel) loadCandidateCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := ApiCtx()
		defer cancel()

		txs, err := m.api.NeedsReview(ctx)
		if err != nil {
			return candidateLoadedMsg{err: err}
		}

		if len(txs) == 0 {
			return candidateLoadedMsg{}
		}

		return candidateLoadedMsg{candidate: &txs[0]}
	}
}

type reviewDoneMsg struct {
	err error
}

func (m SubscriptionsModel) reviewCmd(transactionID, decision string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := ApiCtx()
		defer cancel()

		_, err := m.api.ReviewSubscription(ctx, transactionID, decision)

		return reviewDoneMsg{err: err}
	}
}
