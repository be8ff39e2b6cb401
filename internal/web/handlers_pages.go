package web

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/csvprof/internal/chart"
	"github.com/JonMunkholm/csvprof/internal/core"
	"github.com/JonMunkholm/csvprof/internal/logging"
	"github.com/JonMunkholm/csvprof/internal/web/templates"
)

// renderPage writes c with status. Render errors after the header are only
// logged.
func renderPage(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render page", "path", r.URL.Path, "error", err)
	}
}

// advisory turns an error into a one-line notice for pages.
func advisory(err error) string {
	msg := core.MapError(err)
	return fmt.Sprintf("%s. %s", msg.Message, msg.Action)
}

func (s *Server) handleWelcome(w http.ResponseWriter, r *http.Request) {
	renderPage(w, r, http.StatusOK, templates.Welcome(sessionFrom(r.Context()).User(), ""))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	if err := r.ParseForm(); err != nil {
		renderPage(w, r, http.StatusBadRequest, templates.Welcome(sess.User(), "Could not read the login form."))
		return
	}
	if err := s.service.Login(sess, r.PostFormValue("username")); err != nil {
		if errors.Is(err, core.ErrInvalidValue) {
			renderPage(w, r, http.StatusBadRequest, templates.Welcome(sess.User(), "Please enter a name."))
			return
		}
		fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/upload", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Logout(sessionFrom(r.Context())); err != nil {
		fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) datasetRows(sess *core.Session) []templates.DatasetRow {
	entries := s.service.Entries(sess)
	rows := make([]templates.DatasetRow, len(entries))
	for i, e := range entries {
		sum := summarize(e)
		rows[i] = templates.DatasetRow{Name: sum.Name, Rows: sum.Rows, Columns: sum.Columns, Missing: sum.Missing}
	}
	return rows
}

func (s *Server) handleUploadPage(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	renderPage(w, r, http.StatusOK, templates.UploadPage(sess.User(), s.datasetRows(sess), nil))
}

// handleUploadForm is the browser form variant of the batch upload: the
// page is re-rendered with a line per file.
func (s *Server) handleUploadForm(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	files, cleanup, err := s.uploadFiles(w, r)
	if err != nil {
		msg := core.MapError(err)
		outcome := templates.UploadOutcome{Name: "upload", Message: msg.Message, Code: msg.Code}
		renderPage(w, r, statusFor(err), templates.UploadPage(sess.User(), s.datasetRows(sess), []templates.UploadOutcome{outcome}))
		return
	}
	defer cleanup()

	results := s.service.UploadBatch(r.Context(), sess, files)
	outcomes := make([]templates.UploadOutcome, len(results))
	for i, res := range results {
		outcomes[i] = templates.UploadOutcome{Name: res.Name, OK: res.Err == nil}
		if res.Err != nil {
			msg := core.MapError(res.Err)
			outcomes[i].Message, outcomes[i].Code = msg.Message, msg.Code
		}
	}
	renderPage(w, r, http.StatusOK, templates.UploadPage(sess.User(), s.datasetRows(sess), outcomes))
}

// handleRemoveForm drops a dataset. A name that is already gone is not an
// error; the list simply no longer shows it.
func (s *Server) handleRemoveForm(w http.ResponseWriter, r *http.Request) {
	err := s.service.Remove(sessionFrom(r.Context()), r.PostFormValue("name"))
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/upload", http.StatusSeeOther)
}

// analyzeParams resolves the selected dataset. A stale selection is dropped
// with a notice asking the user to pick again.
func (s *Server) analyzeParams(sess *core.Session, selected string) templates.AnalyzeParams {
	params := templates.AnalyzeParams{
		User:     sess.User(),
		Names:    s.service.Names(sess),
		HeadRows: defaultHeadRows,
	}
	if selected == "" {
		if len(params.Names) == 0 {
			return params
		}
		selected = params.Names[0]
	}
	e, ok := s.service.Lookup(sess, selected)
	if !ok {
		params.Notice = fmt.Sprintf("Dataset %q is no longer loaded. Select another.", selected)
		return params
	}
	params.Selected = selected
	params.Profile = e.Profile
	return params
}

func (s *Server) handleAnalyzePage(w http.ResponseWriter, r *http.Request) {
	params := s.analyzeParams(sessionFrom(r.Context()), r.URL.Query().Get("dataset"))
	renderPage(w, r, http.StatusOK, templates.AnalyzePage(params))
}

func (s *Server) handleCellForm(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("dataset")
	sess := sessionFrom(r.Context())

	row, err := strconv.Atoi(r.PostFormValue("row"))
	if err == nil {
		_, err = s.service.UpdateCell(sess, name, row, r.PostFormValue("column"), r.PostFormValue("value"))
	} else {
		err = fmt.Errorf("%w: row must be a number", core.ErrInvalidValue)
	}
	s.afterEdit(w, r, sess, name, err)
}

func (s *Server) handleDeleteRowsForm(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("dataset")
	sess := sessionFrom(r.Context())

	rows, err := parseRowList(r.PostFormValue("rows"))
	if err == nil {
		_, err = s.service.DeleteRows(sess, name, rows)
	}
	s.afterEdit(w, r, sess, name, err)
}

// afterEdit redirects back to the dataset, or re-renders it with the error
// as a notice.
func (s *Server) afterEdit(w http.ResponseWriter, r *http.Request, sess *core.Session, name string, err error) {
	if err == nil {
		http.Redirect(w, r, "/analyze?dataset="+url.QueryEscape(name), http.StatusSeeOther)
		return
	}
	params := s.analyzeParams(sess, name)
	if params.Notice == "" {
		params.Notice = advisory(err)
	}
	renderPage(w, r, statusFor(err), templates.AnalyzePage(params))
}

func (s *Server) handleComparePage(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	q := r.URL.Query()
	params := templates.CompareParams{
		User:  sess.User(),
		Names: s.service.Names(sess),
		A:     q.Get("a"),
		B:     q.Get("b"),
	}

	if params.A != "" || params.B != "" {
		c, err := s.service.Compare(sess, params.A, params.B)
		if err != nil {
			params.Notice = advisory(err)
		} else {
			params.Result = &c
		}
	} else if len(params.Names) >= 2 {
		params.A, params.B = params.Names[0], params.Names[1]
	}
	renderPage(w, r, http.StatusOK, templates.ComparePage(params))
}

// handleChartPage renders the chart as a standalone echarts page.
func (s *Server) handleChartPage(w http.ResponseWriter, r *http.Request) {
	req, err := chartRequest(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	fig, err := s.service.Chart(sessionFrom(r.Context()), r.URL.Query().Get("dataset"), req)
	if err != nil {
		fail(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := chart.Render(&buf, fig); err != nil {
		fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}
