// Package server exposes markdown rendering and attachment checks over HTTP
// so editors and web front ends can preview what the forum will show.
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mithrel/agora/internal/attach"
	"github.com/mithrel/agora/internal/logger"
	"github.com/mithrel/agora/internal/markdown"
	"github.com/mithrel/agora/pkg/api"
)

const maxBodyBytes = 1 << 20

// Server serves the preview endpoints.
type Server struct {
	cfg    *viper.Viper
	policy api.UploadPolicy
	log    *logger.Logger
}

// New returns a Server validating attachments against policy unless a
// request carries its own.
func New(cfg *viper.Viper, policy api.UploadPolicy, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Discard()
	}
	return &Server{cfg: cfg, policy: attach.Normalize(policy), log: log}
}

// Router returns an http.Handler with registered routes.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("POST /v1/render", s.auth(s.handleRender))
	mux.HandleFunc("POST /v1/attachments/validate", s.auth(s.handleValidate))
	mux.HandleFunc("POST /v1/attachments/urls", s.auth(s.handleURLs))
	return s.requestLog(mux)
}

// auth requires the configured bearer token; with no token configured the
// endpoints are open.
func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tok := strings.TrimSpace(s.cfg.GetString("auth.token"))
		if tok == "" {
			next.ServeHTTP(w, r)
			return
		}
		got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(strings.TrimSpace(got)), []byte(tok)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	}
}

type renderRequest struct {
	Markdown string `json:"markdown"`
	Unsafe   bool   `json:"unsafe,omitempty"`
	Legacy   bool   `json:"legacy,omitempty"`
}

type renderResponse struct {
	HTML string `json:"html"`
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	var html string
	switch {
	case req.Legacy && req.Unsafe:
		html = markdown.Legacy(req.Markdown, markdown.LegacyOptions{})
	case req.Legacy:
		html = markdown.Sanitize(markdown.Legacy(req.Markdown, markdown.LegacyOptions{}))
	default:
		html = markdown.RenderWith(req.Markdown, markdown.Options{Unsafe: req.Unsafe})
	}
	writeJSON(w, http.StatusOK, renderResponse{HTML: html})
}

type validateRequest struct {
	Files           []api.CandidateFile `json:"files"`
	AlreadyAccepted int                 `json:"already_accepted"`
	Policy          *api.UploadPolicy   `json:"policy,omitempty"`
}

type rejection struct {
	api.CandidateFile
	Reason string `json:"reason"`
}

type validateResponse struct {
	Accepted []api.CandidateFile `json:"accepted"`
	Rejected []rejection         `json:"rejected"`
	Policy   api.UploadPolicy    `json:"policy"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.AlreadyAccepted < 0 {
		writeError(w, http.StatusBadRequest, "already_accepted must not be negative")
		return
	}
	policy := s.policy
	if req.Policy != nil {
		policy = attach.Normalize(*req.Policy)
	}
	res := attach.Validate(req.Files, req.AlreadyAccepted, policy)
	out := validateResponse{Accepted: res.Accepted, Rejected: []rejection{}, Policy: policy}
	if out.Accepted == nil {
		out.Accepted = []api.CandidateFile{}
	}
	for _, rj := range res.Rejections {
		out.Rejected = append(out.Rejected, rejection{CandidateFile: rj.File, Reason: rj.Reason})
	}
	s.log.Debug.Printf("validate: %d accepted, %d rejected", len(out.Accepted), len(out.Rejected))
	writeJSON(w, http.StatusOK, out)
}

type urlsRequest struct {
	Attachment api.Attachment `json:"attachment"`
	BaseURL    string         `json:"base_url,omitempty"`
}

func (s *Server) handleURLs(w http.ResponseWriter, r *http.Request) {
	var req urlsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	base := req.BaseURL
	if base == "" {
		base = s.cfg.GetString("base_url")
	}
	if req.Attachment.FilePath == "" && req.Attachment.URL == "" {
		writeError(w, http.StatusBadRequest, "attachment needs file_path or url")
		return
	}
	writeJSON(w, http.StatusOK, attach.LocationsFor(req.Attachment, base))
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// Serve listens on addr until ctx is cancelled. The bound address is sent on
// ready when it is non-nil.
func (s *Server) Serve(ctx context.Context, addr string, ready chan<- string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: s.Router(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	s.log.Info.Printf("preview service listening on %s", l.Addr())
	if ready != nil {
		ready <- l.Addr().String()
	}
	if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
