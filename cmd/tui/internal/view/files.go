package view

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/clairehq/claire/internal/client"
	"github.com/clairehq/claire/internal/scope"
	"github.com/clairehq/claire/internal/upload"
)

type filesState int

const (
	filesStateBrowse filesState = iota
	filesStatePickRange
)

// FilesModel lists uploaded statements and owns scope selection: pick a
// statement as the scope, pick a preset or custom range, or load the demo
// dataset.
type FilesModel struct {
	CommonModel
	api *client.Client

	state  filesState
	table  table.Model
	files  []client.Upload
	picker ScopePicker

	loading bool
	status  string
	err     error
}

func NewFilesModel(api *client.Client) FilesModel {
	columns := []table.Column{
		{Title: "File", Width: 32},
		{Title: "Status", Width: 12},
		{Title: "Transactions", Width: 12},
		{Title: "Uploaded", Width: 12},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
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

	return FilesModel{
		api:     api,
		table:   t,
		picker:  NewScopePicker(),
		loading: true,
	}
}

func (m FilesModel) Init() tea.Cmd {
	return m.loadFilesCmd()
}

func (m FilesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadFilesMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.err = nil
		m.files = msg.files
		m.refreshTable()

		return m, nil

	case demoLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.status = fmt.Sprintf("Demo load failed: %v", msg.err)
			return m, nil
		}

		m.status = msg.batch.Message
		m.loading = true

		return m, m.loadFilesCmd()

	case fileDeletedMsg:
		m.loading = false
		if msg.err != nil {
			m.status = fmt.Sprintf("Delete failed: %v", msg.err)
			return m, nil
		}

		m.status = "Statement deleted"
		m.loading = true

		return m, m.loadFilesCmd()
	}

	if m.state == filesStatePickRange {
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
			m.state = filesStateBrowse
			m.picker.Reset()

			return m, nil
		}

		if _, ok := msg.(ScopeSelectedMsg); ok {
			m.state = filesStateBrowse
			m.picker.Reset()

			return m, nil
		}

		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)

		return m, cmd
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadFilesCmd()
		case "p":
			m.state = filesStatePickRange
			return m, nil
		case "l":
			m.loading = true
			m.status = "Loading demo data..."

			return m, m.loadDemoCmd()
		case "x":
			if f, ok := m.selectedFile(); ok {
				m.loading = true
				return m, m.deleteFileCmd(f.FileID)
			}
		case "enter":
			if f, ok := m.selectedFile(); ok {
				s := scope.ForStatement(f.FileID)

				return m, func() tea.Msg {
					return ScopeSelectedMsg{Scope: s}
				}
			}
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m FilesModel) View() string {
	if m.state == filesStatePickRange {
		return lipgloss.NewStyle().Padding(2).Render(m.picker.View())
	}

	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading statements...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(
			fmt.Sprintf("Error: %v\n\n(r to retry, Esc to back)", m.err))
	}

	help := "Enter: use as scope | p: pick range | l: load demo | x: delete | r: refresh | Esc: back"

	content := lipgloss.JoinVertical(lipgloss.Left,
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

// DefaultScope derives the starting scope from an upload list: the newest
// statement, or no scope when the account has none.
func DefaultScope(files []client.Upload) scope.Scope {
	ups := make([]*upload.Upload, 0, len(files))

	for _, f := range files {
		created, err := time.Parse(time.RFC3339, f.CreatedAt)
		if err != nil {
			continue
		}

		ups = append(ups, &upload.Upload{ID: f.FileID, CreatedAt: created})
	}

	return scope.Default(ups)
}

func (m FilesModel) selectedFile() (client.Upload, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.files) {
		return client.Upload{}, false
	}

	return m.files[idx], true
}

func (m *FilesModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.files))

	for _, f := range m.files {
		uploaded := f.CreatedAt
		if t, err := time.Parse(time.RFC3339, f.CreatedAt); err == nil {
			uploaded = t.Format(time.DateOnly)
		}

		rows = append(rows, table.Row{
			f.FileName,
			f.Status,
			fmt.Sprintf("%d", f.TransactionCount),
			uploaded,
		})
	}

	m.table.SetRows(rows)
}

type loadFilesMsg struct {
	files []client.Upload
	err   error
}

func (m FilesModel) loadFilesCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := ApiCtx()
		defer cancel()

		files, err := m.api.Uploads(ctx, 0)

		return loadFilesMsg{files: files, err: err}
	}
}

type demoLoadedMsg struct {
	batch *client.UploadBatch
	err   error
}

func (m FilesModel) loadDemoCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := ApiCtx()
		defer cancel()

		batch, err := m.api.LoadDemo(ctx)

		return demoLoadedMsg{batch: batch, err: err}
	}
}

type fileDeletedMsg struct {
	err error
}

func (m FilesModel) deleteFileCmd(fileID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := ApiCtx()
		defer cancel()

		return fileDeletedMsg{err: m.api.DeleteUpload(ctx, fileID)}
	}
}
