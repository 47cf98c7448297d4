package main

import (
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/clairehq/claire/cmd/tui/internal/view"
	"github.com/clairehq/claire/internal/client"
	"github.com/clairehq/claire/internal/config"
	"github.com/clairehq/claire/internal/scope"
)

type model struct {
	api *client.Client

	// scope is shared by every data screen; views get it on entry and
	// follow changes through view.ScopeSelectedMsg.
	scope scope.Scope

	currentView View

	filesView   view.FilesModel
	cashflow    view.CashflowModel
	subsView    view.SubscriptionsModel
	goalsView   view.GoalsModel
	insights    view.InsightsModel
	chatView    view.ChatModel
}

type View int

const (
	ViewMenu View = iota
	ViewFiles
	ViewCashflow
	ViewSubscriptions
	ViewGoals
	ViewInsights
	ViewChat
)

func initialModel() model {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	api := client.New(cfg.Client.BaseURL, cfg.Client.Token)

	return model{
		api:         api,
		currentView: ViewMenu,
		filesView:   view.NewFilesModel(api),
		goalsView:   view.NewGoalsModel(api),
		chatView:    view.NewChatModel(api),
	}
}

// defaultScopeMsg carries the one-time startup scope.
type defaultScopeMsg struct {
	scope scope.Scope
}

func (m model) Init() tea.Cmd {
	return m.defaultScopeCmd()
}

// defaultScopeCmd picks the starting scope from the account's uploads.
func (m model) defaultScopeCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := view.ApiCtx()
		defer cancel()

		files, err := m.api.Uploads(ctx, 0)
		if err != nil {
			return defaultScopeMsg{}
		}

		return defaultScopeMsg{scope: view.DefaultScope(files)}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case defaultScopeMsg:
		m.scope = msg.scope
		return m, nil

	case view.ScopeSelectedMsg:
		m.scope = msg.Scope

	case tea.KeyMsg:
		if m.currentView == ViewMenu {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewFiles
				m.filesView = view.NewFilesModel(m.api)

				return m, m.filesView.Init()
			case "2":
				m.currentView = ViewCashflow
				m.cashflow = view.NewCashflowModel(m.api, m.scope)

				return m, m.cashflow.Init()
			case "3":
				m.currentView = ViewSubscriptions
				m.subsView = view.NewSubscriptionsModel(m.api, m.scope)

				return m, m.subsView.Init()
			case "4":
				m.currentView = ViewGoals
				m.goalsView = view.NewGoalsModel(m.api)

				return m, m.goalsView.Init()
			case "5":
				m.currentView = ViewInsights
				m.insights = view.NewInsightsModel(m.api, m.scope)

				return m, m.insights.Init()
			case "6":
				m.currentView = ViewChat
				m.chatView = view.NewChatModel(m.api)

				return m, m.chatView.Init()
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewFiles:
		var newModel tea.Model
		newModel, cmd = m.filesView.Update(msg)
		m.filesView = newModel.(view.FilesModel)
	case ViewCashflow:
		var newModel tea.Model
		newModel, cmd = m.cashflow.Update(msg)
		m.cashflow = newModel.(view.CashflowModel)
	case ViewSubscriptions:
		var newModel tea.Model
		newModel, cmd = m.subsView.Update(msg)
		m.subsView = newModel.(view.SubscriptionsModel)
	case ViewGoals:
		var newModel tea.Model
		newModel, cmd = m.goalsView.Update(msg)
		m.goalsView = newModel.(view.GoalsModel)
	case ViewInsights:
		var newModel tea.Model
		newModel, cmd = m.insights.Update(msg)
		m.insights = newModel.(view.InsightsModel)
	case ViewChat:
		var newModel tea.Model
		newModel, cmd = m.chatView.Update(msg)
		m.chatView = newModel.(view.ChatModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			"Claire\n\n"+
				"Scope: "+m.scope.String()+"\n\n"+
				"1. Statements & Scope\n"+
				"2. Cash Flow\n"+
				"3. Subscriptions\n"+
				"4. Goals\n"+
				"5. Insights\n"+
				"6. Chat\n\n"+
				"q. Quit",
		)
	case ViewFiles:
		return m.filesView.View()
	case ViewCashflow:
		return m.cashflow.View()
	case ViewSubscriptions:
		return m.subsView.View()
	case ViewGoals:
		return m.goalsView.View()
	case ViewInsights:
		return m.insights.View()
	case ViewChat:
		return m.chatView.View()
	}

	return "Unknown View"
}

func main() {
	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
