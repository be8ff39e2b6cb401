// Package logging configures log/slog for the server and CLI.
//
// Request-scoped loggers pick up chi's request ID so every line written
// while serving one request can be correlated: the upload that failed, the
// session it belonged to and the access log line all share one request_id.
//
// Typical use in main:
//
//	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
//	slog.Info("starting server", "addr", cfg.Server.Addr())
//
// and inside a handler:
//
//	log := logging.FromContext(r.Context())
//	log.Warn("upload failed", "file", name, "error", err)
//
// The core package logs through slog's default logger and has no request
// context; the web layer adds session_id where it matters.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

// Setup installs a default logger writing to stdout.
//
// Level values: "debug", "info", "warn", "error" (default: "info")
// Format values: "text", "json" (default: "text")
//
// Use "json" when the output is shipped to a log collector and "text" when a
// person reads the terminal.
func Setup(level, format string) {
	slog.SetDefault(New(os.Stdout, level, format))
}

// New builds a logger for w without touching the global default. Tests use it
// to capture output:
//
//	var buf bytes.Buffer
//	log := logging.New(&buf, "debug", "json")
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// ParseLevel converts a string log level to slog.Level. Unknown values
// mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// FromContext returns the default logger, tagged with request_id when ctx
// carries one from chi's RequestID middleware.
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		logger = logger.With("request_id", reqID)
	}
	return logger
}

// WithFields returns a request logger carrying extra fields, for operations
// that log several steps:
//
//	log := logging.WithFields(ctx, "session", sess.ID, "file", name)
//	log.Info("parse started")
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}
