package middleware

import (
	"net/http"
	"time"

	"github.com/kbukum/verbatim/logger"
)

var quietPaths = map[string]bool{"/health": true, "/info": true}

// RequestLogger logs every request with method, path, status and duration.
// Health probes are skipped.
func RequestLogger(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if quietPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rec := record(w)
			next.ServeHTTP(rec, r)

			status := rec.Status()
			fields := logger.Fields(
				"method", r.Method,
				"path", r.URL.Path,
				logger.FieldStatus, status,
				logger.FieldDuration, time.Since(start).Milliseconds(),
				"bytes", rec.bytes,
			)
			if r.ContentLength > 0 {
				fields["request_bytes"] = r.ContentLength
			}
			if rec.streamed {
				fields["streamed"] = true
			}
			l := log.WithContext(r.Context())
			switch {
			case status >= 500:
				l.Error("Request completed", fields)
			case status >= 400:
				l.Warn("Request completed", fields)
			default:
				l.Debug("Request completed", fields)
			}
		})
	}
}
