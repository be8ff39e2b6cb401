package web

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/csvprof/internal/core"
	"github.com/JonMunkholm/csvprof/internal/logging"
	"github.com/JonMunkholm/csvprof/internal/profile"
)

// datasetSummary is the short form of a dataset in list and edit responses.
type datasetSummary struct {
	Name    string `json:"name"`
	Rows    int    `json:"rows"`
	Columns int    `json:"columns"`
	Missing int    `json:"missing"`
}

func summarize(e core.Entry) datasetSummary {
	return datasetSummary{
		Name:    e.Name,
		Rows:    e.Data.NumRows(),
		Columns: e.Data.NumCols(),
		Missing: e.Profile.TotalMissing(),
	}
}

// uploadResult reports one file of a batch upload.
type uploadResult struct {
	Name    string          `json:"name"`
	OK      bool            `json:"ok"`
	Dataset *datasetSummary `json:"dataset,omitempty"`
	Error   *ErrorResponse  `json:"error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.service.Status())
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	writeJSON(w, r, http.StatusOK, map[string]any{
		"user":      sess.User(),
		"logged_in": sess.LoggedIn(),
		"datasets":  s.service.Names(sess),
	})
}

func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	entries := s.service.Entries(sessionFrom(r.Context()))
	out := make([]datasetSummary, len(entries))
	for i, e := range entries {
		out[i] = summarize(e)
	}
	writeJSON(w, r, http.StatusOK, out)
}

// handleUploadDatasets loads every "files" part. Files succeed or fail
// independently, so the response is 200 with a result per file unless the
// request itself is malformed.
func (s *Server) handleUploadDatasets(w http.ResponseWriter, r *http.Request) {
	files, cleanup, err := s.uploadFiles(w, r)
	if err != nil {
		fail(w, r, err)
		return
	}
	defer cleanup()

	sess := sessionFrom(r.Context())
	results := s.service.UploadBatch(r.Context(), sess, files)

	out := make([]uploadResult, len(results))
	loaded := 0
	for i, res := range results {
		out[i] = uploadResult{Name: res.Name, OK: res.Err == nil}
		if res.Err != nil {
			msg := core.MapError(res.Err)
			out[i].Error = &ErrorResponse{Error: msg.Message, Message: msg.Message, Action: msg.Action, Code: msg.Code}
			logging.FromContext(r.Context()).Warn("upload failed", "file", res.Name, "error", res.Err)
			continue
		}
		sum := summarize(res.Entry)
		out[i].Dataset = &sum
		loaded++
	}

	logging.WithFields(r.Context(), "session_id", sess.ID).Info("batch upload",
		"files", len(results), "loaded", loaded)
	writeJSON(w, r, http.StatusOK, out)
}

func (s *Server) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	e, err := s.service.Get(sessionFrom(r.Context()), chi.URLParam(r, "name"))
	if err != nil {
		fail(w, r, err)
		return
	}
	n := parseIntParam(r, "head", defaultHeadRows, maxHeadRows)
	writeJSON(w, r, http.StatusOK, map[string]any{
		"name":       e.Name,
		"info":       e.Profile.Info(),
		"basic_info": e.Profile.BasicInfo(),
		"columns":    e.Data.ColumnNames(),
		"head":       e.Profile.Head(n),
	})
}

func (s *Server) handleDeleteDataset(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Remove(sessionFrom(r.Context()), chi.URLParam(r, "name")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// profileResponse is the full profile of one dataset.
type profileResponse struct {
	Name        string               `json:"name"`
	Info        profile.Info         `json:"info"`
	Numeric     []string             `json:"numeric_columns"`
	Categorical []string             `json:"categorical_columns"`
	Stats       profile.StatsTable   `json:"stats"`
	Missing     []profile.MissingRow `json:"missing"`
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	e, err := s.service.Get(sessionFrom(r.Context()), chi.URLParam(r, "name"))
	if err != nil {
		fail(w, r, err)
		return
	}
	p := e.Profile
	writeJSON(w, r, http.StatusOK, profileResponse{
		Name:        e.Name,
		Info:        p.Info(),
		Numeric:     p.NumericColumns(),
		Categorical: p.CategoricalColumns(),
		Stats:       p.SummaryStats(),
		Missing:     p.MissingValues(),
	})
}

type cellRequest struct {
	Row    int    `json:"row"`
	Column string `json:"column"`
	Value  string `json:"value"`
}

func (s *Server) handleUpdateCell(w http.ResponseWriter, r *http.Request) {
	var req cellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, r, fmt.Errorf("%w: %v", core.ErrInvalidValue, err))
		return
	}
	e, err := s.service.UpdateCell(sessionFrom(r.Context()), chi.URLParam(r, "name"), req.Row, req.Column, req.Value)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, summarize(e))
}

type deleteRowsRequest struct {
	Rows []int `json:"rows"`
}

func (s *Server) handleDeleteRows(w http.ResponseWriter, r *http.Request) {
	var req deleteRowsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, r, fmt.Errorf("%w: %v", core.ErrInvalidValue, err))
		return
	}
	e, err := s.service.DeleteRows(sessionFrom(r.Context()), chi.URLParam(r, "name"), req.Rows)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, summarize(e))
}

// handleExport streams the dataset as CSV (default) or Parquet.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	e, err := s.service.Get(sessionFrom(r.Context()), chi.URLParam(r, "name"))
	if err != nil {
		fail(w, r, err)
		return
	}

	format := r.URL.Query().Get("format")
	var (
		contentType, filename string
		write                 func(http.ResponseWriter) error
	)
	switch format {
	case "", "csv":
		contentType, filename = "text/csv; charset=utf-8", attachmentName(e.Name, ".csv")
		write = func(w http.ResponseWriter) error { return e.Data.WriteCSV(w) }
	case "parquet":
		contentType, filename = "application/vnd.apache.parquet", attachmentName(e.Name, ".parquet")
		write = func(w http.ResponseWriter) error { return e.Data.WriteParquet(w) }
	default:
		fail(w, r, fmt.Errorf("%w: export format %q", core.ErrInvalidValue, format))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := write(w); err != nil {
		// Headers are gone; all that is left is to log.
		logging.FromContext(r.Context()).Error("export failed", "dataset", e.Name, "format", format, "error", err)
	}
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	req, err := chartRequest(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	fig, err := s.service.Chart(sessionFrom(r.Context()), chi.URLParam(r, "name"), req)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, fig)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	c, err := s.service.Compare(sessionFrom(r.Context()), q.Get("a"), q.Get("b"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, c)
}
