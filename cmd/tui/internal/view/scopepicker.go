package view

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/clairehq/claire/internal/scope"
)

type scopePickerState int

const (
	scopePickerStateSelect scopePickerState = iota
	scopePickerStateCustom
)

// ScopePicker is a reusable component for choosing a date-range scope from
// the preset catalog or a custom range. Statement scopes are chosen on the
// files screen instead.
type ScopePicker struct {
	state    scopePickerState
	selected int // index into scope.Presets; len(Presets) = custom

	startInput textinput.Model
	endInput   textinput.Model
	focusIndex int

	err error
}

func NewScopePicker() ScopePicker {
	si := textinput.New()
	si.Placeholder = "YYYY-MM-DD"
	si.CharLimit = 10
	si.Width = 12
	si.Prompt = "Start Date: "

	ei := textinput.New()
	ei.Placeholder = "YYYY-MM-DD"
	ei.CharLimit = 10
	ei.Width = 12
	ei.Prompt = "End Date:   "

	return ScopePicker{
		state:      scopePickerStateSelect,
		startInput: si,
		endInput:   ei,
	}
}

func (m ScopePicker) Init() tea.Cmd {
	return nil
}

func (m ScopePicker) Update(msg tea.Msg) (ScopePicker, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch m.state {
		case scopePickerStateSelect:
			return m.updateSelect(keyMsg)
		case scopePickerStateCustom:
			return m.updateCustom(keyMsg)
		}
	}

	if m.state == scopePickerStateCustom {
		return m.updateInputs(msg)
	}

	return m, nil
}

func (m ScopePicker) updateSelect(msg tea.KeyMsg) (ScopePicker, tea.Cmd) {
	switch msg.Type {
	case tea.KeyUp:
		if m.selected > 0 {
			m.selected--
		}
	case tea.KeyDown:
		if m.selected < len(scope.Presets) {
			m.selected++
		}
	case tea.KeyEnter:
		if m.selected == len(scope.Presets) {
			m.state = scopePickerStateCustom
			m.startInput.Focus()
			m.focusIndex = 0

			return m, textinput.Blink
		}

		s := scope.Presets[m.selected].Expand(time.Now())

		return m, func() tea.Msg {
			return ScopeSelectedMsg{Scope: s}
		}
	}

	return m, nil
}

func (m ScopePicker) updateCustom(msg tea.KeyMsg) (ScopePicker, tea.Cmd) {
	switch msg.String() {
	case "tab", "shift+tab":
		m.focusIndex = (m.focusIndex + 1) % 2
		m.startInput.Blur()
		m.endInput.Blur()

		if m.focusIndex == 0 {
			m.startInput.Focus()
			return m, textinput.Blink
		}

		m.endInput.Focus()

		return m, textinput.Blink

	case "enter":
		start, err := time.Parse(time.DateOnly, m.startInput.Value())
		if err != nil {
			m.err = fmt.Errorf("invalid start date (YYYY-MM-DD)")
			return m, nil
		}

		end, err := time.Parse(time.DateOnly, m.endInput.Value())
		if err != nil {
			m.err = fmt.Errorf("invalid end date (YYYY-MM-DD)")
			return m, nil
		}

		// Inverted ranges never reach the network.
		s, err := scope.ForRange(start, end)
		if err != nil {
			m.err = err
			return m, nil
		}

		m.err = nil

		return m, func() tea.Msg {
			return ScopeSelectedMsg{Scope: s}
		}

	case "esc":
		m.state = scopePickerStateSelect
		m.err = nil

		return m, nil
	}

	return m, nil
}

func (m ScopePicker) updateInputs(msg tea.Msg) (ScopePicker, tea.Cmd) {
	var cmds []tea.Cmd
	var c tea.Cmd

	m.startInput, c = m.startInput.Update(msg)
	cmds = append(cmds, c)
	m.endInput, c = m.endInput.Update(msg)
	cmds = append(cmds, c)

	return m, tea.Batch(cmds...)
}

func (m ScopePicker) View() string {
	errStr := ""
	if m.err != nil {
		errStr = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(fmt.Sprintf("\n\nError: %v", m.err))
	}

	if m.state == scopePickerStateCustom {
		return fmt.Sprintf(
			"Enter Custom Range:\n\n%s\n%s\n\n(Enter to confirm, Tab to switch, Esc to back)%s",
			m.startInput.View(),
			m.endInput.View(),
			errStr,
		)
	}

	s := "Select Range:\n\n"

	for i, preset := range scope.Presets {
		cursor := " "
		if m.selected == i {
			cursor = ">"
		}

		s += fmt.Sprintf("%s %s\n", cursor, preset.Label())
	}

	cursor := " "
	if m.selected == len(scope.Presets) {
		cursor = ">"
	}

	s += fmt.Sprintf("%s Custom Range\n", cursor)
	s += "\n(Enter to select, Esc to back)"

	return s + errStr
}

// Reset returns the picker to its initial selection state.
func (m *ScopePicker) Reset() {
	m.state = scopePickerStateSelect
	m.selected = 0
	m.err = nil
	m.startInput.SetValue("")
	m.endInput.SetValue("")
}
