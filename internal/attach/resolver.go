package attach

import (
	"strconv"
	"strings"

	"github.com/mithrel/agora/pkg/api"
)

// DownloadURL prefers the server-provided URL and otherwise points at the
// storage path. It is meant for direct downloads, not inline display.
func DownloadURL(a api.Attachment, baseURL string) string {
	if a.URL != "" {
		return a.URL
	}
	return join(baseURL, "storage", a.FilePath)
}

// DisplayURLChain lists the locations tried, in order, when showing an
// attachment inline. The server URL is left out since it usually carries a
// download disposition.
func DisplayURLChain(a api.Attachment, baseURL string) []string {
	return []string{
		join(baseURL, "storage", a.FilePath),
		join(baseURL, "", a.FilePath),
		join(baseURL, "api/files", a.FileName),
		join(baseURL, "uploads", a.FileName),
	}
}

// CandidateURLs returns the server URL alone when present, otherwise the
// display chain. The result is never empty.
func CandidateURLs(a api.Attachment, baseURL string) []string {
	if a.URL != "" {
		return []string{a.URL}
	}
	return DisplayURLChain(a, baseURL)
}

// AttachmentURLByID is the id-addressed download endpoint.
func AttachmentURLByID(id int64, baseURL string) string {
	return join(baseURL, "api/attachments", strconv.FormatInt(id, 10)+"/download")
}

// Locations gathers every URL form of one attachment.
type Locations struct {
	Download   string   `json:"download"`
	Display    []string `json:"display"`
	Candidates []string `json:"candidates"`
	ByID       string   `json:"by_id,omitempty"`
}

func LocationsFor(a api.Attachment, baseURL string) Locations {
	l := Locations{
		Download:   DownloadURL(a, baseURL),
		Display:    DisplayURLChain(a, baseURL),
		Candidates: CandidateURLs(a, baseURL),
	}
	if a.ID > 0 {
		l.ByID = AttachmentURLByID(a.ID, baseURL)
	}
	return l
}

func join(base, prefix, p string) string {
	base = strings.TrimRight(base, "/")
	p = strings.TrimLeft(p, "/")
	if prefix == "" {
		return base + "/" + p
	}
	return base + "/" + prefix + "/" + p
}
