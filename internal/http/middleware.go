package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"lifeplan/internal/log"
)

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// logging wraps a handler with per-request structured logging: request id,
// method, path, status and duration. 4xx logs as warn, 5xx as error.
func logging(logger *log.Logger, next http.Handler) http.Handler {
	httpLog := logger.WithComponent(log.ComponentHTTP)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		args := []any{
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rec.status,
			log.FieldDuration, time.Since(start).Milliseconds(),
		}
		switch {
		case rec.status >= 500:
			httpLog.ErrorContext(r.Context(), "HTTP request completed", args...)
		case rec.status >= 400:
			httpLog.WarnContext(r.Context(), "HTTP request completed", args...)
		default:
			httpLog.InfoContext(r.Context(), "HTTP request completed", args...)
		}
	})
}
