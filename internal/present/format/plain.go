package format

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mithrel/agora/internal/attach"
	"github.com/mithrel/agora/internal/drafts"
	"github.com/mithrel/agora/pkg/api"
)

// TSV columns: id, title, category, attachments, updated
var draftHeader = "id\ttitle\tcategory\tattachments\tupdated\n"

func esc(field string) string {
	field = strings.ReplaceAll(field, "\t", "\\t")
	field = strings.ReplaceAll(field, "\n", "\\n")
	return field
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

func WritePlainDrafts(w io.Writer, ds []drafts.Draft, headers bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if headers {
		_, _ = io.WriteString(tw, draftHeader)
	}
	for _, d := range ds {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n",
			esc(d.ID), esc(d.Title), d.CategoryID, len(d.Attachments), d.UpdatedAt.Local().Format(time.RFC3339))
	}
	return tw.Flush()
}

func WritePlainDraft(w io.Writer, d drafts.Draft) error {
	_, _ = fmt.Fprintf(w, "ID: %s\nTitle: %s\nCategory: %d\nTags: %s\nUpdated: %s\n",
		d.ID, d.Title, d.CategoryID, joinIDs(d.TagIDs), d.UpdatedAt.Local().Format(time.RFC3339))
	if len(d.Attachments) > 0 {
		_, _ = io.WriteString(w, "Attachments:\n")
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, a := range d.Attachments {
			_, _ = fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", esc(a.Name), a.MIMEType, attach.HumanSize(a.SizeBytes), api.ShortDigest(a.Digest))
		}
		_ = tw.Flush()
	}
	body := d.Markdown
	if body == "" {
		body = d.Content
	}
	_, err := fmt.Fprintf(w, "---\n%s\n", body)
	return err
}

// Mark decorates a status word; the default leaves it unchanged.
type Mark func(string) string

// WritePlainValidation prints one line per file: accepted files first, then
// rejections with their reason.
func WritePlainValidation(w io.Writer, res attach.Result, ok, bad Mark) error {
	if ok == nil {
		ok = func(s string) string { return s }
	}
	if bad == nil {
		bad = func(s string) string { return s }
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, f := range res.Accepted {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", ok("accepted"), esc(f.Name), f.MIMEType, attach.HumanSize(f.SizeBytes))
	}
	for _, r := range res.Rejections {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", bad("rejected"), esc(r.File.Name), r.File.MIMEType, r.Reason)
	}
	return tw.Flush()
}

func WritePlainLocations(w io.Writer, l attach.Locations) error {
	_, _ = fmt.Fprintf(w, "download\t%s\n", l.Download)
	if l.ByID != "" {
		_, _ = fmt.Fprintf(w, "by-id\t%s\n", l.ByID)
	}
	for i, u := range l.Display {
		_, _ = fmt.Fprintf(w, "display[%d]\t%s\n", i, u)
	}
	return nil
}

func WritePlainNamed[T any](w io.Writer, items []T, row func(T) (int64, string)) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, it := range items {
		id, name := row(it)
		_, _ = fmt.Fprintf(tw, "%d\t%s\n", id, esc(name))
	}
	return tw.Flush()
}
