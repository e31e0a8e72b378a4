// Package ui holds the interactive terminal views.
package ui

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mithrel/agora/internal/drafts"
)

// ErrCancelled is returned when the picker is closed without a choice.
var ErrCancelled = errors.New("no draft selected")

// PickDraft opens an interactive table of drafts and returns the id of the
// row chosen with enter.
func PickDraft(ctx context.Context, ds []drafts.Draft, in io.Reader, out io.Writer) (string, error) {
	if len(ds) == 0 {
		return "", ErrCancelled
	}
	p := tea.NewProgram(newPicker(ds), tea.WithContext(ctx), tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return "", err
	}
	m, ok := final.(model)
	if !ok || m.chosen == "" {
		return "", ErrCancelled
	}
	return m.chosen, nil
}

func newPicker(ds []drafts.Draft) model {
	cols := []table.Column{
		{Title: "ID", Width: 10},
		{Title: "Title", Width: 40},
		{Title: "Files", Width: 5},
		{Title: "Updated", Width: 16},
	}

	rows := make([]table.Row, 0, len(ds))
	ids := make([]string, 0, len(ds))
	for _, d := range ds {
		rows = append(rows, table.Row{
			shortID(d.ID),
			truncate(oneLine(d.Title), 40),
			strconv.Itoa(len(d.Attachments)),
			d.UpdatedAt.Local().Format("2006-01-02 15:04"),
		})
		ids = append(ids, d.ID)
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(min(12, max(3, len(rows)+3))),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return model{table: t, ids: ids}
}

type model struct {
	table  table.Model
	ids    []string
	chosen string
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "enter":
			if i := m.table.Cursor(); i >= 0 && i < len(m.ids) {
				m.chosen = m.ids[i]
			}
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m model) View() string {
	if len(m.ids) == 0 {
		return "(no drafts)\n"
	}
	return m.table.View() + "\n↑/↓ to navigate • enter to pick • q to cancel\n"
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
