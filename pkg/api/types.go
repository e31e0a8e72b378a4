package api

import (
	"encoding/json"
	"io"
	"strconv"
	"time"
)

// Attachment is a server-confirmed uploaded file belonging to a question or answer.
type Attachment struct {
	ID           int64      `json:"id"`
	QuestionID   *int64     `json:"question_id,omitempty"`
	OriginalName string     `json:"original_name"`
	FileName     string     `json:"file_name"`
	FilePath     string     `json:"file_path"`
	MIMEType     string     `json:"mime_type,omitempty"`
	SizeBytes    int64      `json:"file_size"`
	FileType     string     `json:"file_type,omitempty"`
	URL          string     `json:"url,omitempty"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

// UploadPolicy is the set of constraints governing attachment acceptance.
type UploadPolicy struct {
	AllowedMIMETypes []string `json:"allowed_types"`
	MaxFileSize      int64    `json:"max_file_size"`
	MaxFileCount     int      `json:"max_files"`
}

// Allows reports whether mime is listed verbatim in the policy.
func (p UploadPolicy) Allows(mime string) bool {
	for _, t := range p.AllowedMIMETypes {
		if t == mime {
			return true
		}
	}
	return false
}

// CandidateFile is a locally selected file that has not been uploaded yet.
// Source is opaque to validation; it is only read when the file is submitted.
type CandidateFile struct {
	Name      string    `json:"name"`
	MIMEType  string    `json:"mime_type"`
	SizeBytes int64     `json:"size"`
	Path      string    `json:"path,omitempty"`
	Digest    string    `json:"digest,omitempty"`
	Source    io.Reader `json:"-"`
}

type User struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"rol"`
	Reputation int    `json:"reputacion"`
}

type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"nombre"`
}

type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"nombre"`
	Description string `json:"descripcion,omitempty"`
}

type Answer struct {
	ID         int64      `json:"id"`
	Content    string     `json:"contenido"`
	Markdown   string     `json:"contenido_markdown,omitempty"`
	BestAnswer bool       `json:"es_mejor_respuesta,omitempty"`
	Votes      int        `json:"votos,omitempty"`
	User       *User      `json:"user,omitempty"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
}

// Question states as reported by the forum.
const (
	StateOpen     = "abierta"
	StateResolved = "resuelta"
	StateClosed   = "cerrada"
)

type Question struct {
	ID          int64        `json:"id"`
	Title       string       `json:"titulo"`
	Content     string       `json:"contenido"`
	Markdown    string       `json:"contenido_markdown,omitempty"`
	State       string       `json:"estado,omitempty"`
	Votes       int          `json:"votos,omitempty"`
	Views       int          `json:"vistas,omitempty"`
	User        User         `json:"user"`
	Category    Category     `json:"category"`
	Tags        []Tag        `json:"tags"`
	Answers     []Answer     `json:"answers,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	CreatedAt   *time.Time   `json:"created_at,omitempty"`
	UpdatedAt   *time.Time   `json:"updated_at,omitempty"`
}

// Body returns the markdown source when present, otherwise the plain content.
func (q Question) Body() string {
	if q.Markdown != "" {
		return q.Markdown
	}
	return q.Content
}

// FlexID accepts ids encoded either as JSON numbers or strings.
type FlexID int64

func (f *FlexID) UnmarshalJSON(b []byte) error {
	var n int64
	if err := json.Unmarshal(b, &n); err == nil {
		*f = FlexID(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*f = FlexID(n)
	return nil
}
