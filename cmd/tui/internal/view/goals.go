package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/clairehq/claire/internal/client"
)

type goalsState int

const (
	goalsStateBrowse goalsState = iota
	goalsStateCreate
	goalsStateEditSaved
)

// GoalsModel manages savings goals: list with progress, create, update the
// saved amount, delete. Amounts are validated locally before any request.
type GoalsModel struct {
	CommonModel
	api *client.Client

	state goalsState
	table table.Model
	goals []client.Goal
	form  *huh.Form

	// Form bindings.
	formName   string
	formTarget string
	formSaved  string

	loading bool
	status  string
	err     error
}

func NewGoalsModel(api *client.Client) GoalsModel {
	columns := []table.Column{
		{Title: "Name", Width: 24},
		{Title: "Saved", Width: 12},
		{Title: "Target", Width: 12},
		{Title: "Progress", Width: 10},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return GoalsModel{api: api, table: t, loading: true}
}

func (m GoalsModel) Init() tea.Cmd {
	return m.loadGoalsCmd()
}

// validAmount accepts non-negative decimal amounts only; NaN, infinities
// and negatives never reach the API.
func validAmount(s string) error {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("enter a number")
	}

	if d.IsNegative() {
		return fmt.Errorf("amount cannot be negative")
	}

	return nil
}

func (m GoalsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case goalsLoadedMsg:
		m.loading = false

		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.err = nil
		m.goals = msg.goals
		m.refreshTable()

		return m, nil

	case goalSavedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error saving: %v", msg.err)
		} else {
			m.status = ""
		}

		m.state = goalsStateBrowse
		m.form = nil
		m.table.Focus()
		m.loading = true

		return m, m.loadGoalsCmd()
	}

	switch m.state {
	case goalsStateBrowse:
		return m.updateBrowse(msg)
	default:
		return m.updateForm(msg)
	}
}

func (m GoalsModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadGoalsCmd()
		case "n":
			return m.enterCreate()
		case "e":
			return m.enterEditSaved()
		case "x":
			if g, ok := m.selectedGoal(); ok {
				m.loading = true
				return m, m.deleteGoalCmd(g.ID)
			}
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m GoalsModel) enterCreate() (tea.Model, tea.Cmd) {
	m.formName = ""
	m.formTarget = ""
	m.formSaved = "0"

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("name").
				Title("Goal name").
				Value(&m.formName).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name cannot be empty")
					}
					return nil
				}),

			huh.NewInput().
				Key("target").
				Title("Target amount").
				Value(&m.formTarget).
				Validate(validAmount),

			huh.NewInput().
				Key("saved").
				Title("Already saved").
				Value(&m.formSaved).
				Validate(validAmount),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = goalsStateCreate
	m.table.Blur()

	return m, m.form.Init()
}

func (m GoalsModel) enterEditSaved() (tea.Model, tea.Cmd) {
	g, ok := m.selectedGoal()
	if !ok {
		return m, nil
	}

	m.formSaved = g.CurrentSaved.StringFixed(2)

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("saved").
				Title(fmt.Sprintf("Saved so far (target %s)", g.TargetAmount.StringFixed(2))).
				Value(&m.formSaved).
				Validate(validAmount),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = goalsStateEditSaved
	m.table.Blur()

	return m, m.form.Init()
}

func (m GoalsModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = goalsStateBrowse
		m.form = nil
		m.table.Focus()

		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	if m.state == goalsStateCreate {
		return m, m.createGoalCmd()
	}

	return m, m.updateSavedCmd()
}

func (m GoalsModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading goals...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(
			fmt.Sprintf("Error: %v\n\n(r to retry, Esc to back)", m.err))
	}

	help := "n: new | e: edit saved | x: delete | r: refresh | Esc: back"

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			Render(m.table.View()),
		lipgloss.NewStyle().Faint(true).Render(help),
	)

	if m.state != goalsStateBrowse && m.form != nil {
		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(48).
			Render(m.form.View())

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m GoalsModel) selectedGoal() (client.Goal, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.goals) {
		return client.Goal{}, false
	}

	return m.goals[idx], true
}

func (m *GoalsModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.goals))

	for _, g := range m.goals {
		rows = append(rows, table.Row{
			g.Name,
			g.CurrentSaved.StringFixed(2),
			g.TargetAmount.StringFixed(2),
			fmt.Sprintf("%d%%", g.ProgressPercent),
		})
	}

	m.table.SetRows(rows)
}

type goalsLoadedMsg struct {
	goals []client.Goal
	err   error
}

func (m GoalsModel) loadGoalsCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := ApiCtx()
		defer cancel()

		goals, err := m.api.Goals(ctx)

		return goalsLoadedMsg{goals: goals, err: err}
	}
}

type goalSavedMsg struct {
	err error
}

func (m GoalsModel) createGoalCmd() tea.Cmd {
	name := strings.TrimSpace(m.formName)
	target, _ := decimal.NewFromString(strings.TrimSpace(m.formTarget))
	saved, _ := decimal.NewFromString(strings.TrimSpace(m.formSaved))

	return func() tea.Msg {
		ctx, cancel := ApiCtx()
		defer cancel()

		_, err := m.api.CreateGoal(ctx, client.GoalParams{
			Name:         &name,
			TargetAmount: &target,
			CurrentSaved: &saved,
		})

		return goalSavedMsg{err: err}
	}
}

func (m GoalsModel) updateSavedCmd() tea.Cmd {
	g, ok := m.selectedGoal()
	if !ok {
		return nil
	}

	saved, _ := decimal.NewFromString(strings.TrimSpace(m.formSaved))

	return func() tea.Msg {
		ctx, cancel := ApiCtx()
		defer cancel()

		_, err := m.api.UpdateGoal(ctx, g.ID, client.GoalParams{CurrentSaved: &saved})

		return goalSavedMsg{err: err}
	}
}

func (m GoalsModel) deleteGoalCmd(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := ApiCtx()
		defer cancel()

		if err := m.api.DeleteGoal(ctx, id); err != nil {
			return goalSavedMsg{err: err}
		}

		return goalSavedMsg{}
	}
}
