// Package middleware provides HTTP middleware for the web server: one access
// log line per request and client IP resolution behind trusted proxies.
//
// Order matters. TrustedRealIP must run before Logger so the logged ip is the
// client's, and chi's RequestID before both so lines carry request_id:
//
//	r.Use(chimw.RequestID)
//	r.Use(middleware.TrustedRealIP(cfg.Security.TrustedProxies))
//	r.Use(middleware.Logger)
package middleware

import (
	"net/http"
	"time"

	"github.com/JonMunkholm/csvprof/internal/logging"
)

// Logger logs one structured line per request with method, path, status,
// duration_ms, ip and bytes. Server errors log at error level so a failed
// parse or export stands out; everything else, including 4xx from bad
// uploads, logs at info since respondError already logged the cause.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(ww, r)

		logger := logging.FromContext(r.Context())
		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", ClientIP(r),
			"bytes", ww.bytes,
		}
		if ww.status >= http.StatusInternalServerError {
			logger.Error("request", attrs...)
			return
		}
		logger.Info("request", attrs...)
	})
}

// responseWriter wraps http.ResponseWriter to capture status and size.
type responseWriter struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (w *responseWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.status = status
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
