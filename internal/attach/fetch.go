package attach

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/mithrel/agora/pkg/api"
)

// ErrUnavailable is returned once every candidate location has failed.
var ErrUnavailable = errors.New("attachment unavailable")

// Fetcher downloads attachments, falling back through alternate locations.
type Fetcher struct {
	client *http.Client
	token  string
	log    *log.Logger
}

func NewFetcher(client *http.Client, token string, logger *log.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Fetcher{client: client, token: token, log: logger}
}

// FetchChain is the ordered, de-duplicated list of locations Fetch tries:
// the download URL first, then the display chain.
func FetchChain(a api.Attachment, baseURL string) []string {
	out := []string{DownloadURL(a, baseURL)}
	seen := map[string]bool{out[0]: true}
	for _, u := range DisplayURLChain(a, baseURL) {
		if !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
	}
	return out
}

// Fetch copies the first location that answers 2xx into w and returns it.
// Once a body starts streaming no further fallback is attempted.
func (f *Fetcher) Fetch(ctx context.Context, a api.Attachment, baseURL string, w io.Writer) (string, error) {
	fb := NewFallback(FetchChain(a, baseURL))
	for {
		u, ok := fb.Current()
		if !ok {
			return "", fmt.Errorf("%s: %w", a.OriginalName, ErrUnavailable)
		}
		resp, err := f.get(ctx, u)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			f.log.Printf("attachment %s: %s failed: %v", a.OriginalName, u, err)
			fb.Fail()
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			resp.Body.Close()
			f.log.Printf("attachment %s: %s returned %d", a.OriginalName, u, resp.StatusCode)
			fb.Fail()
			continue
		}
		_, err = io.Copy(w, resp.Body)
		resp.Body.Close()
		if err != nil {
			return u, fmt.Errorf("download %s: %w", u, err)
		}
		return u, nil
	}
}

func (f *Fetcher) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}
	return f.client.Do(req)
}
