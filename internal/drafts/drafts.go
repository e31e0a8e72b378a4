// Package drafts keeps unsubmitted questions and their pending attachments
// between CLI invocations. Only file references are stored, never bytes.
package drafts

import (
	"errors"
	"strings"
	"time"

	"github.com/mithrel/agora/pkg/api"
)

var (
	ErrNotFound  = errors.New("draft not found")
	ErrAmbiguous = errors.New("draft id prefix is ambiguous")
)

type Draft struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Content     string       `json:"content,omitempty"`
	Markdown    string       `json:"markdown,omitempty"`
	CategoryID  int64        `json:"category_id,omitempty"`
	TagIDs      []int64      `json:"tag_ids,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Attachment references an accepted local file.
type Attachment struct {
	Name      string `json:"name"`
	MIMEType  string `json:"mime_type"`
	SizeBytes int64  `json:"size"`
	Path      string `json:"path"`
	Digest    string `json:"digest,omitempty"`
}

func (a Attachment) Candidate() api.CandidateFile {
	return api.CandidateFile{Name: a.Name, MIMEType: a.MIMEType, SizeBytes: a.SizeBytes, Path: a.Path, Digest: a.Digest}
}

func fromCandidate(f api.CandidateFile) Attachment {
	return Attachment{Name: f.Name, MIMEType: f.MIMEType, SizeBytes: f.SizeBytes, Path: f.Path, Digest: f.Digest}
}

// Candidates returns the pending attachments as submission candidates.
func (d Draft) Candidates() []api.CandidateFile {
	out := make([]api.CandidateFile, 0, len(d.Attachments))
	for _, a := range d.Attachments {
		out = append(out, a.Candidate())
	}
	return out
}

// AppendImage adds an inline image reference for an attachment named name.
// The imagen: scheme is resolved by the forum once the file is uploaded.
func AppendImage(markdown, name string) string {
	return markdown + "\n![" + name + "](imagen:" + name + ")"
}

func normalizeTags(ids []int64) []int64 {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}
