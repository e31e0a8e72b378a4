package forumapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/mithrel/agora/pkg/api"
)

var (
	ErrTitleRequired    = errors.New("title is required")
	ErrContentRequired  = errors.New("content is required")
	ErrCategoryRequired = errors.New("category is required")
)

// Submission is a new question ready to post.
type Submission struct {
	Title       string
	Content     string
	Markdown    string
	CategoryID  int64
	TagIDs      []int64
	Attachments []api.CandidateFile
}

// Validate mirrors the checks the forum form performs before posting.
func (s Submission) Validate() error {
	var errs []error
	if strings.TrimSpace(s.Title) == "" {
		errs = append(errs, ErrTitleRequired)
	}
	if strings.TrimSpace(s.Content) == "" && strings.TrimSpace(s.Markdown) == "" {
		errs = append(errs, ErrContentRequired)
	}
	if s.CategoryID <= 0 {
		errs = append(errs, ErrCategoryRequired)
	}
	return errors.Join(errs...)
}

// body is the text sent as contenido: markdown when present, plain otherwise.
func (s Submission) body() string {
	if s.Markdown != "" {
		return s.Markdown
	}
	return s.Content
}

// CreateQuestion posts s as multipart/form-data and returns the created
// question. Attachment bytes come from Source, or from Path when Source is nil.
func (c *Client) CreateQuestion(ctx context.Context, s Submission) (api.Question, error) {
	if err := s.Validate(); err != nil {
		return api.Question{}, err
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := [][2]string{
		{"titulo", s.Title},
		{"contenido", s.body()},
	}
	if s.Markdown != "" {
		fields = append(fields, [2]string{"contenido_markdown", s.Markdown})
	}
	fields = append(fields, [2]string{"category_id", strconv.FormatInt(s.CategoryID, 10)})
	for _, id := range s.TagIDs {
		fields = append(fields, [2]string{"tags[]", strconv.FormatInt(id, 10)})
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return api.Question{}, fmt.Errorf("failed to write %s: %w", f[0], err)
		}
	}
	for _, f := range s.Attachments {
		if err := writeFilePart(w, f); err != nil {
			return api.Question{}, err
		}
	}
	if err := w.Close(); err != nil {
		return api.Question{}, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	body, err := c.execRequest(ctx, http.MethodPost, "/questions", w.FormDataContentType(), &buf)
	if err != nil {
		return api.Question{}, err
	}

	var created struct {
		ID api.FlexID `json:"id"`
	}
	if err := decodeData(body, &created); err != nil {
		return api.Question{}, fmt.Errorf("decode created question: %w", err)
	}
	var q api.Question
	if err := decodeData(body, &q); err != nil {
		c.log.Debug.Printf("forumapi: partial question payload: %v", err)
		q = api.Question{Title: s.Title, Content: s.Content, Markdown: s.Markdown}
	}
	q.ID = int64(created.ID)
	c.log.Info.Printf("forumapi: created question %d with %d attachment(s)", q.ID, len(s.Attachments))
	return q, nil
}

func writeFilePart(w *multipart.Writer, f api.CandidateFile) error {
	src := f.Source
	if src == nil {
		if f.Path == "" {
			return fmt.Errorf("attachment %s: no content", f.Name)
		}
		fh, err := os.Open(f.Path)
		if err != nil {
			return fmt.Errorf("attachment %s: %w", f.Name, err)
		}
		defer fh.Close()
		src = fh
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="attachments[]"; filename="%s"`, escapeQuotes(f.Name)))
	ct := f.MIMEType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)
	part, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("attachment %s: %w", f.Name, err)
	}
	if _, err := io.Copy(part, src); err != nil {
		return fmt.Errorf("attachment %s: %w", f.Name, err)
	}
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string { return quoteEscaper.Replace(s) }

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
