package present

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/mithrel/agora/pkg/api"
)

// Styles decorate status words. Without color every style is a no-op.
type Styles struct {
	Accepted func(string) string
	Rejected func(string) string
	Muted    func(string) string
}

func NewStyles(color bool) Styles {
	if !color {
		id := func(s string) string { return s }
		return Styles{Accepted: id, Rejected: id, Muted: id}
	}
	ok := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	bad := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	muted := lipgloss.NewStyle().Faint(true)
	return Styles{
		Accepted: func(s string) string { return ok.Render(s) },
		Rejected: func(s string) string { return bad.Render(s) },
		Muted:    func(s string) string { return muted.Render(s) },
	}
}

// IsTerminal reports whether w is a terminal file descriptor.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// TerminalWidth returns the width of w, or 80 when unknown.
func TerminalWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return 80
}

func formatQuestion(q api.Question) string {
	tags := make([]string, len(q.Tags))
	for i, t := range q.Tags {
		tags[i] = t.Name
	}
	return fmt.Sprintf("ID: %d\nTitle: %s\nCategory: %s\nTags: %s\nState: %s\nAttachments: %d\nAnswers: %d\n---\n%s\n",
		q.ID, q.Title, q.Category.Name, strings.Join(tags, ", "), q.State, len(q.Attachments), len(q.Answers), q.Body())
}
