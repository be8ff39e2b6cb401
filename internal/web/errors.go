package web

// errors.go turns service errors into HTTP responses.
//
// Every error is logged with its technical detail and request ID, then
// mapped through core.MapError so the client only sees a user message,
// an action and a support code. API callers get JSON; pages get the error
// alert rendered inside the layout.

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/csvprof/internal/chart"
	"github.com/JonMunkholm/csvprof/internal/core"
	"github.com/JonMunkholm/csvprof/internal/logging"
	"github.com/JonMunkholm/csvprof/internal/web/templates"
)

var errRateLimited = errors.New("rate limit exceeded")

// ErrorResponse is the JSON body of an API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor picks the HTTP status for a service error.
func statusFor(err error) int {
	var perr *core.ParseError
	switch {
	case errors.As(err, &perr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrTooManyUploads):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrNotLoggedIn):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrEmptySelection),
		errors.Is(err, chart.ErrColumnType):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrInvalidValue),
		errors.Is(err, core.ErrUnknownColumn),
		errors.Is(err, chart.ErrUnknownKind),
		errors.Is(err, core.ErrNoFile):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// fail responds with the status statusFor picks.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	respondError(w, r, err, statusFor(err))
}

// respondError logs err and writes the user-facing message.
func respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	msg := core.MapError(err)

	log := logging.FromContext(r.Context())
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	log.Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	)

	if wantsJSON(r) {
		respondErrorJSON(w, msg, status)
		return
	}
	respondErrorHTML(w, r, msg, status)
}

func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

func respondErrorHTML(w http.ResponseWriter, r *http.Request, msg core.UserMessage, status int) {
	user := ""
	if sess := sessionFrom(r.Context()); sess != nil {
		user = sess.User()
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	templates.ErrorPage(user, msg.Message, msg.Action, msg.Code).Render(r.Context(), w)
}

// writeJSON encodes v before sending the status line, so a value that
// cannot be encoded turns into a 500 instead of an empty 200.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode error", "path", r.URL.Path, "error", err)
		respondErrorJSON(w, core.MapError(err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		logging.FromContext(r.Context()).Debug("write response", "error", err)
	}
}
