package format

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mithrel/agora/internal/attach"
	"github.com/mithrel/agora/internal/markdown"
	"github.com/mithrel/agora/pkg/api"
)

// WritePrettyQuestion renders a question and its answers for the terminal.
func WritePrettyQuestion(w io.Writer, q api.Question, width int) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", q.Title)
	fmt.Fprintf(&b, "> **#%d** | **%s** | %s", q.ID, q.Category.Name, stateLabel(q.State))
	if q.CreatedAt != nil {
		fmt.Fprintf(&b, " | %s", q.CreatedAt.Local().Format(time.RFC3339))
	}
	b.WriteString("\n")
	if len(q.Tags) > 0 {
		names := make([]string, len(q.Tags))
		for i, t := range q.Tags {
			names[i] = "`" + t.Name + "`"
		}
		fmt.Fprintf(&b, ">\n> %s\n", strings.Join(names, " "))
	}
	fmt.Fprintf(&b, "\n---\n\n%s\n", strings.TrimSpace(q.Body()))

	if len(q.Attachments) > 0 {
		b.WriteString("\n## Attachments\n\n")
		for _, a := range q.Attachments {
			fmt.Fprintf(&b, "- %s (%s, %s)\n", a.OriginalName, attach.KindOf(a.MIMEType), attach.HumanSize(a.SizeBytes))
		}
	}
	for _, a := range q.Answers {
		b.WriteString("\n---\n\n")
		who := "anonymous"
		if a.User != nil {
			who = a.User.Name
		}
		mark := ""
		if a.BestAnswer {
			mark = " ✓"
		}
		fmt.Fprintf(&b, "**%s**%s (%d votes)\n\n", who, mark, a.Votes)
		body := a.Markdown
		if body == "" {
			body = a.Content
		}
		b.WriteString(strings.TrimSpace(body) + "\n")
	}

	out, err := markdown.Terminal(b.String(), width)
	if err != nil {
		return fmt.Errorf("failed to render markdown: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}

func stateLabel(s string) string {
	switch s {
	case api.StateResolved:
		return "resolved"
	case api.StateClosed:
		return "closed"
	case api.StateOpen, "":
		return "open"
	}
	return s
}
