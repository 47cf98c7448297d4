package view

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/clairehq/claire/internal/scope"
)

const apiTimeout = 30 * time.Second

type CommonModel struct {
	Width  int
	Height int
}

type BackMsg struct{}

func Back() tea.Msg {
	return BackMsg{}
}

// ScopeSelectedMsg is emitted when a screen picks a new data scope. The
// root model stores it and hands it to every screen.
type ScopeSelectedMsg struct {
	Scope scope.Scope
}

// ApiCtx returns a context with the standard timeout for API calls.
func ApiCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), apiTimeout)
}
