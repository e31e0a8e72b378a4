// Package forumapi talks to the forum backend over its JSON/multipart API.
package forumapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mithrel/agora/internal/attach"
	"github.com/mithrel/agora/internal/logger"
	"github.com/mithrel/agora/pkg/api"
)

// APIError is returned for any non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("forum api: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("forum api: %d: %s", e.Status, e.Message)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status == status
}

type Client struct {
	http   *http.Client
	apiURL string
	token  string
	log    *logger.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }
func WithToken(tok string) Option          { return func(c *Client) { c.token = tok } }
func WithLogger(l *logger.Logger) Option   { return func(c *Client) { c.log = l } }

// New returns a client for the API rooted at apiURL (the URL including /api).
func New(apiURL string, opts ...Option) *Client {
	c := &Client{
		http:   &http.Client{Timeout: 30 * time.Second},
		apiURL: strings.TrimRight(apiURL, "/"),
		log:    logger.Discard(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) execRequest(ctx context.Context, method, path, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, body)
	if err != nil {
		return nil, err
	}
	rid := api.NewID()
	req.Header.Set("X-Request-ID", rid)
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	c.log.Debug.Printf("forumapi: %s %s request_id=%s", method, path, rid)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if resp.StatusCode >= 300 {
		return nil, &APIError{Status: resp.StatusCode, Message: errorMessage(respBody)}
	}
	return respBody, nil
}

// errorMessage extracts a readable message from an error body. Field
// validation errors (422) are appended as "field: msg" pairs.
func errorMessage(body []byte) string {
	var e struct {
		Message string              `json:"message"`
		Error   string              `json:"error"`
		Errors  map[string][]string `json:"errors"`
	}
	if err := json.Unmarshal(body, &e); err != nil {
		return strings.TrimSpace(string(body))
	}
	msg := e.Message
	if msg == "" {
		msg = e.Error
	}
	if len(e.Errors) == 0 {
		return msg
	}
	fields := make([]string, 0, len(e.Errors))
	for _, k := range sortedKeys(e.Errors) {
		fields = append(fields, k+": "+strings.Join(e.Errors[k], ", "))
	}
	if msg == "" {
		return strings.Join(fields, "; ")
	}
	return msg + " (" + strings.Join(fields, "; ") + ")"
}

// decodeData unmarshals body into out, unwrapping a {"data": ...} envelope
// when present.
func decodeData(body []byte, out any) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var env struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &env); err == nil && len(env.Data) > 0 && !bytes.Equal(env.Data, []byte("null")) {
			trimmed = env.Data
		}
	}
	return json.Unmarshal(trimmed, out)
}

// FetchUploadPolicy asks the server for its current upload limits.
// Limits the server leaves unset fall back to the defaults.
func (c *Client) FetchUploadPolicy(ctx context.Context) (api.UploadPolicy, error) {
	body, err := c.execRequest(ctx, http.MethodGet, "/attachments/info", "", nil)
	if err != nil {
		return api.UploadPolicy{}, err
	}
	var p api.UploadPolicy
	if err := decodeData(body, &p); err != nil {
		return api.UploadPolicy{}, fmt.Errorf("decode upload policy: %w", err)
	}
	return attach.Normalize(p), nil
}

// UploadPolicy is FetchUploadPolicy with the built-in policy as fallback.
func (c *Client) UploadPolicy(ctx context.Context) api.UploadPolicy {
	p, err := c.FetchUploadPolicy(ctx)
	if err != nil {
		c.log.Warn.Printf("forumapi: upload policy unavailable, using defaults: %v", err)
		return attach.DefaultPolicy()
	}
	return p
}

func (c *Client) Categories(ctx context.Context) ([]api.Category, error) {
	body, err := c.execRequest(ctx, http.MethodGet, "/public/categories", "", nil)
	if err != nil {
		return nil, err
	}
	var out []api.Category
	if err := decodeData(body, &out); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	return out, nil
}

func (c *Client) Tags(ctx context.Context) ([]api.Tag, error) {
	body, err := c.execRequest(ctx, http.MethodGet, "/public/tags", "", nil)
	if err != nil {
		return nil, err
	}
	var out []api.Tag
	if err := decodeData(body, &out); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	return out, nil
}

func (c *Client) Question(ctx context.Context, id int64) (api.Question, error) {
	body, err := c.execRequest(ctx, http.MethodGet, "/questions/"+strconv.FormatInt(id, 10), "", nil)
	if err != nil {
		return api.Question{}, err
	}
	var q api.Question
	if err := decodeData(body, &q); err != nil {
		return api.Question{}, fmt.Errorf("decode question: %w", err)
	}
	return q, nil
}
