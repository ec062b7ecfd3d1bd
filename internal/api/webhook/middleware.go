package webhook

import (
	"net/http"
	"time"

	"github.com/oshokin/next-alarm/internal/logger"
)

// statusRecorder remembers the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter

	// status is the written status code.
	status int
}

// WriteHeader records the status code before delegating.
func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// WithLogging logs every request with its route pattern, status and duration.
// The raw path is not logged because it contains the webhook secret.
func WithLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		pattern := r.Pattern
		if pattern == "" {
			pattern = "unmatched"
		}

		logger.DebugKV(r.Context(), "HTTP request served",
			"method", r.Method,
			"route", pattern,
			"status", recorder.status,
			"duration", time.Since(started).String(),
		)
	})
}
