package httpapi

import (
	"net/http"
	"strings"
	"time"

	"calview/internal/instrumentation"
)

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// WithMetrics wraps a handler so every request is recorded with method,
// normalized path, status, and duration.
func WithMetrics(next http.Handler, metrics *instrumentation.Metrics) http.Handler {
	if metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		metrics.RecordHTTPRequest(r.Context(), r.Method, normalizePath(r.URL.Path), rec.status, time.Since(start))
	})
}

// normalizePath collapses per-resource path segments so metric labels
// stay bounded.
func normalizePath(path string) string {
	if strings.HasPrefix(path, "/api/calendar/events/") {
		return "/api/calendar/events/{id}"
	}
	return path
}
