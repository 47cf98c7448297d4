package view

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/clairehq/claire/internal/client"
)

// ChatModel is the assistant conversation. Replies stream in chunk by
// chunk; the pending reply is appended to the transcript once the stream
// finishes.
type ChatModel struct {
	CommonModel
	api *client.Client

	input    textinput.Model
	messages []client.ChatMessage
	pending  string
	stream   <-chan client.StreamChunk

	loading   bool
	streaming bool
	status    string
}

func NewChatModel(api *client.Client) ChatModel {
	ti := textinput.New()
	ti.Placeholder = "Ask about your finances..."
	ti.Width = 60
	ti.Focus()

	return ChatModel{api: api, input: ti, loading: true}
}

func (m ChatModel) Init() tea.Cmd {
	return tea.Batch(m.loadHistoryCmd(), textinput.Blink)
}

func (m ChatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		m.loading = false

		if msg.err != nil {
			m.status = fmt.Sprintf("Could not load history: %v", msg.err)
			return m, nil
		}

		m.messages = msg.messages

		return m, nil

	case streamStartedMsg:
		if msg.err != nil {
			m.streaming = false
			m.status = fmt.Sprintf("Error: %v", msg.err)

			return m, nil
		}

		m.stream = msg.stream
		m.pending = ""

		return m, waitForChunk(m.stream)

	case streamChunkMsg:
		if msg.chunk.Err != nil {
			m.streaming = false
			m.status = fmt.Sprintf("Stream error: %v", msg.chunk.Err)

			return m, nil
		}

		m.pending += msg.chunk.Content

		if msg.chunk.Done {
			m.streaming = false

			if m.pending != "" {
				m.messages = append(m.messages, client.ChatMessage{Role: "assistant", Content: m.pending})
				m.pending = ""
			}

			return m, nil
		}

		return m, waitForChunk(m.stream)

	case historyClearedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Clear failed: %v", msg.err)
			return m, nil
		}

		m.messages = nil
		m.status = "History cleared"

		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEsc:
			return m, Back
		case tea.KeyCtrlD:
			return m, m.clearHistoryCmd()
		case tea.KeyEnter:
			if m.streaming {
				return m, nil
			}

			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				return m, nil
			}

			m.messages = append(m.messages, client.ChatMessage{Role: "user", Content: text})
			m.input.SetValue("")
			m.streaming = true
			m.status = ""

			return m, m.startStreamCmd(m.messages)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m ChatModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading conversation...")
	}

	userStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	assistantStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)

	var b strings.Builder

	b.WriteString("Chat with Claire\n\n")

	for _, msg := range m.messages {
		switch msg.Role {
		case "user":
			b.WriteString(userStyle.Render("You: "))
		default:
			b.WriteString(assistantStyle.Render("Claire: "))
		}

		b.WriteString(msg.Content)
		b.WriteString("\n\n")
	}

	if m.streaming {
		b.WriteString(assistantStyle.Render("Claire: "))
		b.WriteString(m.pending)
		b.WriteString("▌\n\n")
	}

	if m.status != "" {
		b.WriteString(lipgloss.NewStyle().Faint(true).Render(m.status))
		b.WriteString("\n")
	}

	b.WriteString(m.input.View())
	b.WriteString("\n\n(Enter: send, Ctrl+D: clear history, Esc: back)")

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

type historyLoadedMsg struct {
	messages []client.ChatMessage
	err      error
}

func (m ChatModel) loadHistoryCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := ApiCtx()
		defer cancel()

		messages, err := m.api.ChatHistory(ctx)

		return historyLoadedMsg{messages: messages, err: err}
	}
}

type streamStartedMsg struct {
	stream <-chan client.StreamChunk
	err    error
}

// startStreamCmd opens the reply stream. The stream outlives this command;
// chunks are pumped into the event loop by waitForChunk.
func (m ChatModel) startStreamCmd(messages []client.ChatMessage) tea.Cmd {
	return func() tea.Msg {
		stream, err := m.api.ChatStream(context.Background(), messages)

		return streamStartedMsg{stream: stream, err: err}
	}
}

type streamChunkMsg struct {
	chunk client.StreamChunk
}

func waitForChunk(stream <-chan client.StreamChunk) tea.Cmd {
	return func() tea.Msg {
		chunk, ok := <-stream
		if !ok {
			return streamChunkMsg{chunk: client.StreamChunk{Done: true}}
		}

		return streamChunkMsg{chunk: chunk}
	}
}

type historyClearedMsg struct {
	err error
}

func (m ChatModel) clearHistoryCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := ApiCtx()
		defer cancel()

		return historyClearedMsg{err: m.api.ClearChat(ctx)}
	}
}
