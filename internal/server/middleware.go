package server

import (
	"net/http"
	"time"

	"github.com/mithrel/agora/pkg/api"
)

// statusWriter captures the status code written by a handler.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// requestLog tags every request with an X-Request-ID (reusing the caller's)
// and logs its outcome.
func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get("X-Request-ID")
		if rid == "" {
			rid = api.NewID()
		}
		w.Header().Set("X-Request-ID", rid)
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(sw, r)
		s.log.Info.Printf("%s %s %d %dms request_id=%s", r.Method, r.URL.Path, sw.status, time.Since(start).Milliseconds(), rid)
	})
}
