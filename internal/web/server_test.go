package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/csvprof/internal/config"
	"github.com/JonMunkholm/csvprof/internal/core"
)

const exampleCSV = "x,y\n1,a\n,b\n3,c\n"

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 8080, RequestTimeout: 5 * time.Second},
		Upload: config.UploadConfig{
			ScratchDir:    "unused",
			MaxFileSize:   1 << 20,
			MaxFiles:      5,
			MaxConcurrent: 2,
			MaxWaitTime:   time.Second,
		},
		Session:  config.SessionConfig{CookieName: "csvprof_session"},
		Security: config.SecurityConfig{EnableCSP: true},
		Logging:  config.LoggingConfig{Level: "error", Format: "text"},
	}
}

type testEnv struct {
	t      *testing.T
	srv    *httptest.Server
	client *http.Client
}

func newTestEnv(t *testing.T, cfg *config.Config) *testEnv {
	t.Helper()
	svc, err := core.NewService(core.Options{
		ScratchRoot:         t.TempDir(),
		MaxUploadBytes:      cfg.Upload.MaxFileSize,
		MaxConcurrentParses: cfg.Upload.MaxConcurrent,
		ParseWait:           cfg.Upload.MaxWaitTime,
	})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	s := NewServer(svc, cfg)
	ts := httptest.NewServer(s.Router())
	t.Cleanup(func() {
		ts.Close()
		s.Shutdown(context.Background())
	})

	jar, _ := cookiejar.New(nil)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &testEnv{t: t, srv: ts, client: client}
}

func (e *testEnv) do(req *http.Request) (*http.Response, []byte) {
	e.t.Helper()
	resp, err := e.client.Do(req)
	if err != nil {
		e.t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		e.t.Fatal(err)
	}
	return resp, body
}

func (e *testEnv) get(path string) (*http.Response, []byte) {
	e.t.Helper()
	req, _ := http.NewRequest(http.MethodGet, e.srv.URL+path, nil)
	return e.do(req)
}

func (e *testEnv) postJSON(path string, v any) (*http.Response, []byte) {
	e.t.Helper()
	b, _ := json.Marshal(v)
	req, _ := http.NewRequest(http.MethodPost, e.srv.URL+path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return e.do(req)
}

func (e *testEnv) postForm(path string, form url.Values) (*http.Response, []byte) {
	e.t.Helper()
	req, _ := http.NewRequest(http.MethodPost, e.srv.URL+path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(req)
}

// upload posts files (name, content pairs) as one multipart request.
func (e *testEnv) upload(path string, files ...string) (*http.Response, []byte) {
	e.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for i := 0; i+1 < len(files); i += 2 {
		part, err := mw.CreateFormFile("files", files[i])
		if err != nil {
			e.t.Fatal(err)
		}
		io.WriteString(part, files[i+1])
	}
	mw.Close()

	req, _ := http.NewRequest(http.MethodPost, e.srv.URL+path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return e.do(req)
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	return v
}

func wantStatus(t *testing.T, resp *http.Response, body []byte, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("%s %s status = %d, want %d; body: %s",
			resp.Request.Method, resp.Request.URL.Path, resp.StatusCode, want, body)
	}
}

func wantCode(t *testing.T, body []byte, code string) {
	t.Helper()
	if got := decode[ErrorResponse](t, body).Code; got != code {
		t.Errorf("error code = %q, want %q; body: %s", got, code, body)
	}
}

// profileJSON is the part of the profile response the tests inspect.
type profileJSON struct {
	Numeric     []string `json:"numeric_columns"`
	Categorical []string `json:"categorical_columns"`
	Stats       struct {
		Columns []string `json:"columns"`
	} `json:"stats"`
	Missing []struct {
		Column  string  `json:"column"`
		Count   int     `json:"count"`
		Percent float64 `json:"percent"`
	} `json:"missing"`
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, testConfig())
	resp, body := env.get("/healthz")
	wantStatus(t, resp, body, http.StatusOK)
	if !strings.Contains(string(body), `"ok"`) {
		t.Errorf("body = %s", body)
	}
}

func TestAPI_UploadAndProfile(t *testing.T) {
	env := newTestEnv(t, testConfig())

	resp, body := env.upload("/api/datasets", "t.csv", exampleCSV)
	wantStatus(t, resp, body, http.StatusOK)
	results := decode[[]uploadResult](t, body)
	if len(results) != 1 || !results[0].OK || results[0].Dataset.Rows != 3 {
		t.Fatalf("upload results = %s", body)
	}

	resp, body = env.get("/api/datasets")
	wantStatus(t, resp, body, http.StatusOK)
	list := decode[[]datasetSummary](t, body)
	if len(list) != 1 || list[0].Name != "t.csv" || list[0].Missing != 1 {
		t.Errorf("list = %s", body)
	}

	resp, body = env.get("/api/datasets/t.csv/profile")
	wantStatus(t, resp, body, http.StatusOK)
	prof := decode[profileJSON](t, body)

	if len(prof.Numeric) != 1 || prof.Numeric[0] != "x" {
		t.Errorf("numeric = %v, want [x]", prof.Numeric)
	}
	if len(prof.Categorical) != 1 || prof.Categorical[0] != "y" {
		t.Errorf("categorical = %v, want [y]", prof.Categorical)
	}
	if len(prof.Stats.Columns) != 1 || prof.Stats.Columns[0] != "x" {
		t.Errorf("stats columns = %v, want [x]", prof.Stats.Columns)
	}
	if len(prof.Missing) != 2 || prof.Missing[0].Count != 1 || prof.Missing[1].Count != 0 {
		t.Errorf("missing = %+v", prof.Missing)
	}

	resp, body = env.get("/api/datasets/t.csv?head=2")
	wantStatus(t, resp, body, http.StatusOK)
	detail := decode[struct {
		Head [][]string `json:"head"`
	}](t, body)
	if len(detail.Head) != 2 {
		t.Errorf("head rows = %d, want 2", len(detail.Head))
	}
}

func TestAPI_UploadBatchReportsEachFile(t *testing.T) {
	env := newTestEnv(t, testConfig())

	resp, body := env.upload("/api/datasets",
		"good.csv", exampleCSV,
		"ragged.csv", "a,b\n1,2,3\n",
		"empty.csv", "",
	)
	wantStatus(t, resp, body, http.StatusOK)
	results := decode[[]uploadResult](t, body)
	if len(results) != 3 {
		t.Fatalf("results = %s", body)
	}
	if !results[0].OK {
		t.Errorf("good.csv failed: %s", body)
	}
	if results[1].OK || results[1].Error.Code != "FILE002" {
		t.Errorf("ragged.csv result = %+v", results[1])
	}
	if results[2].OK || results[2].Error.Code != "FILE005" {
		t.Errorf("empty.csv result = %+v", results[2])
	}

	_, body = env.get("/api/datasets")
	if list := decode[[]datasetSummary](t, body); len(list) != 1 {
		t.Errorf("only the good file should load, got %s", body)
	}
}

func TestAPI_UploadErrors(t *testing.T) {
	cfg := testConfig()
	cfg.Upload.MaxFiles = 1
	env := newTestEnv(t, cfg)

	resp, body := env.upload("/api/datasets")
	wantStatus(t, resp, body, http.StatusBadRequest)
	wantCode(t, body, "FILE004")

	resp, body = env.upload("/api/datasets", "a.csv", exampleCSV, "b.csv", exampleCSV)
	wantStatus(t, resp, body, http.StatusBadRequest)
	wantCode(t, body, "VAL001")
}

func TestAPI_NotFound(t *testing.T) {
	env := newTestEnv(t, testConfig())

	for _, path := range []string{
		"/api/datasets/missing.csv",
		"/api/datasets/missing.csv/profile",
		"/api/datasets/missing.csv/export",
		"/api/datasets/missing.csv/chart",
	} {
		resp, body := env.get(path)
		wantStatus(t, resp, body, http.StatusNotFound)
		wantCode(t, body, "DS001")
	}

	req, _ := http.NewRequest(http.MethodDelete, env.srv.URL+"/api/datasets/missing.csv", nil)
	resp, body := env.do(req)
	wantStatus(t, resp, body, http.StatusNotFound)
}

func TestAPI_Edits(t *testing.T) {
	env := newTestEnv(t, testConfig())
	env.upload("/api/datasets", "t.csv", exampleCSV)

	resp, body := env.postJSON("/api/datasets/t.csv/cells", cellRequest{Row: 1, Column: "x", Value: "2"})
	wantStatus(t, resp, body, http.StatusOK)
	if got := decode[datasetSummary](t, body); got.Missing != 0 {
		t.Errorf("missing after fill = %d, want 0", got.Missing)
	}

	resp, body = env.postJSON("/api/datasets/t.csv/cells", cellRequest{Row: 0, Column: "x", Value: "abc"})
	wantStatus(t, resp, body, http.StatusBadRequest)
	wantCode(t, body, "VAL001")

	resp, body = env.postJSON("/api/datasets/t.csv/cells", cellRequest{Row: 0, Column: "nope", Value: "1"})
	wantStatus(t, resp, body, http.StatusBadRequest)
	wantCode(t, body, "VAL002")

	resp, body = env.postJSON("/api/datasets/t.csv/delete-rows", deleteRowsRequest{Rows: []int{0, 2}})
	wantStatus(t, resp, body, http.StatusOK)
	if got := decode[datasetSummary](t, body); got.Rows != 1 {
		t.Errorf("rows after delete = %d, want 1", got.Rows)
	}

	req, _ := http.NewRequest(http.MethodDelete, env.srv.URL+"/api/datasets/t.csv", nil)
	resp, body = env.do(req)
	wantStatus(t, resp, body, http.StatusNoContent)
}

func TestAPI_Export(t *testing.T) {
	env := newTestEnv(t, testConfig())
	env.upload("/api/datasets", "t.csv", exampleCSV)

	resp, body := env.get("/api/datasets/t.csv/export")
	wantStatus(t, resp, body, http.StatusOK)
	if !strings.HasPrefix(string(body), "x,y\n") {
		t.Errorf("csv export = %q", body)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, `"t.csv"`) {
		t.Errorf("Content-Disposition = %q", cd)
	}

	resp, body = env.get("/api/datasets/t.csv/export?format=parquet")
	wantStatus(t, resp, body, http.StatusOK)
	if !bytes.HasPrefix(body, []byte("PAR1")) {
		t.Errorf("parquet export starts with %q", body[:min(4, len(body))])
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, `"t.parquet"`) {
		t.Errorf("Content-Disposition = %q", cd)
	}

	resp, body = env.get("/api/datasets/t.csv/export?format=xlsx")
	wantStatus(t, resp, body, http.StatusBadRequest)
}

func TestAPI_Chart(t *testing.T) {
	env := newTestEnv(t, testConfig())
	env.upload("/api/datasets", "t.csv", exampleCSV)

	resp, body := env.get("/api/datasets/t.csv/chart?kind=bar&x=y")
	wantStatus(t, resp, body, http.StatusOK)
	fig := decode[struct {
		Kind   string    `json:"kind"`
		Labels []string  `json:"labels"`
		Values []float64 `json:"values"`
	}](t, body)
	if fig.Kind != "bar" || len(fig.Labels) != 3 || fig.Values[0] != 1 {
		t.Errorf("figure = %s", body)
	}

	tests := []struct {
		query  string
		status int
		code   string
	}{
		{"kind=radar", http.StatusBadRequest, "VAL004"},
		{"kind=histogram&x=y", http.StatusUnprocessableEntity, "VAL003"},
		{"kind=bar&agg=mode", http.StatusBadRequest, "VAL004"},
		{"bins=zero", http.StatusBadRequest, "VAL001"},
	}
	for _, tt := range tests {
		resp, body := env.get("/api/datasets/t.csv/chart?" + tt.query)
		wantStatus(t, resp, body, tt.status)
		wantCode(t, body, tt.code)
	}
}

func TestAPI_NonFiniteValues(t *testing.T) {
	env := newTestEnv(t, testConfig())
	resp, body := env.upload("/api/datasets", "wide.csv", "x,y\n1,inf\n-1e308,3\n1e308,4\n")
	wantStatus(t, resp, body, http.StatusOK)

	resp, body = env.get("/api/datasets/wide.csv/profile")
	wantStatus(t, resp, body, http.StatusOK)
	if prof := decode[profileJSON](t, body); len(prof.Numeric) != 2 {
		t.Errorf("numeric = %v, want [x y]", prof.Numeric)
	}

	resp, body = env.get("/api/datasets/wide.csv/chart?kind=histogram&x=x&bins=3")
	wantStatus(t, resp, body, http.StatusOK)
	hist := decode[struct {
		Values []float64 `json:"values"`
	}](t, body)
	if len(hist.Values) != 3 || hist.Values[0]+hist.Values[1]+hist.Values[2] != 3 {
		t.Errorf("histogram = %s", body)
	}

	resp, body = env.get("/api/datasets/wide.csv/chart?kind=line&x=x&y=y")
	wantStatus(t, resp, body, http.StatusOK)
	line := decode[struct {
		Points []struct{ X, Y float64 } `json:"points"`
	}](t, body)
	if len(line.Points) != 2 {
		t.Errorf("line points = %s, want the infinite row dropped", body)
	}
}

func TestAPI_Compare(t *testing.T) {
	env := newTestEnv(t, testConfig())
	env.upload("/api/datasets", "a.csv", exampleCSV)

	resp, body := env.get("/api/compare?a=a.csv&b=b.csv")
	wantStatus(t, resp, body, http.StatusUnprocessableEntity)
	wantCode(t, body, "DS002")

	env.upload("/api/datasets", "b.csv", "x,z\n5,true\n")

	resp, body = env.get("/api/compare?a=a.csv&b=b.csv")
	wantStatus(t, resp, body, http.StatusOK)
	c := decode[core.Comparison](t, body)
	if c.A.Rows != 3 || c.B.Rows != 1 {
		t.Errorf("rows = %d/%d", c.A.Rows, c.B.Rows)
	}
	if len(c.CommonColumns) != 1 || c.CommonColumns[0] != "x" {
		t.Errorf("common = %v", c.CommonColumns)
	}

	resp, body = env.get("/api/compare?a=a.csv&b=gone.csv")
	wantStatus(t, resp, body, http.StatusNotFound)
}

func TestAPI_SessionIsolation(t *testing.T) {
	env := newTestEnv(t, testConfig())
	env.upload("/api/datasets", "mine.csv", exampleCSV)

	// A second client has its own cookie jar and so its own session.
	other := *env
	jar, _ := cookiejar.New(nil)
	other.client = &http.Client{Jar: jar}

	_, body := other.get("/api/datasets")
	if list := decode[[]datasetSummary](t, body); len(list) != 0 {
		t.Errorf("other session sees %s", body)
	}
	_, body = env.get("/api/session")
	sess := decode[struct {
		Datasets []string `json:"datasets"`
	}](t, body)
	if len(sess.Datasets) != 1 {
		t.Errorf("own session datasets = %v", sess.Datasets)
	}
}

func TestPages_LoginFlow(t *testing.T) {
	env := newTestEnv(t, testConfig())

	resp, _ := env.get("/upload")
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/" {
		t.Fatalf("GET /upload before login = %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	resp, body := env.postForm("/login", url.Values{"username": {"  "}})
	wantStatus(t, resp, body, http.StatusBadRequest)

	resp, _ = env.postForm("/login", url.Values{"username": {"alice"}})
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/upload" {
		t.Fatalf("POST /login = %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	resp, body = env.get("/upload")
	wantStatus(t, resp, body, http.StatusOK)
	if !strings.Contains(string(body), "alice") {
		t.Error("upload page does not show the user")
	}

	resp, body = env.upload("/upload", "t.csv", exampleCSV, "bad.csv", "a,b\n1\n")
	wantStatus(t, resp, body, http.StatusOK)
	page := string(body)
	if !strings.Contains(page, "loaded") || !strings.Contains(page, "FILE002") {
		t.Errorf("upload results missing from page")
	}

	resp, body = env.get("/analyze?dataset=t.csv")
	wantStatus(t, resp, body, http.StatusOK)
	for _, want := range []string{"Rows: 3", "Summary statistics", "33.33%"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("analyze page missing %q", want)
		}
	}

	resp, body = env.get("/analyze?dataset=gone.csv")
	wantStatus(t, resp, body, http.StatusOK)
	if !strings.Contains(string(body), "no longer loaded") {
		t.Error("stale selection should produce a notice")
	}

	resp, _ = env.postForm("/analyze/cell?dataset=t.csv", url.Values{"row": {"1"}, "column": {"x"}, "value": {"7"}})
	if resp.StatusCode != http.StatusSeeOther {
		t.Errorf("cell form status = %d", resp.StatusCode)
	}
	resp, body = env.postForm("/analyze/delete-rows?dataset=t.csv", url.Values{"rows": {"x"}})
	wantStatus(t, resp, body, http.StatusBadRequest)

	resp, body = env.get("/chart?dataset=t.csv&kind=histogram&x=x")
	wantStatus(t, resp, body, http.StatusOK)
	if !strings.Contains(string(body), "echarts") {
		t.Error("chart page missing echarts")
	}

	resp, body = env.get("/compare")
	wantStatus(t, resp, body, http.StatusOK)
	if !strings.Contains(string(body), "at least two datasets") {
		t.Error("compare with one dataset should advise uploading more")
	}

	resp, _ = env.postForm("/logout", nil)
	if resp.StatusCode != http.StatusSeeOther {
		t.Errorf("logout status = %d", resp.StatusCode)
	}
	_, body = env.get("/api/session")
	after := decode[struct {
		LoggedIn bool     `json:"logged_in"`
		Datasets []string `json:"datasets"`
	}](t, body)
	if after.LoggedIn || len(after.Datasets) != 0 {
		t.Errorf("session after logout = %s", body)
	}
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2, UploadLimit: 1}
	env := newTestEnv(t, cfg)

	for i := 0; i < 2; i++ {
		resp, body := env.get("/api/status")
		wantStatus(t, resp, body, http.StatusOK)
	}
	resp, body := env.get("/api/status")
	wantStatus(t, resp, body, http.StatusTooManyRequests)
	wantCode(t, body, "RATE001")
	if resp.Header.Get("Retry-After") == "" {
		t.Error("Retry-After not set")
	}
}

func TestSecurityHeaders(t *testing.T) {
	env := newTestEnv(t, testConfig())
	resp, _ := env.get("/")
	for _, h := range []string{"X-Content-Type-Options", "X-Frame-Options", "Content-Security-Policy"} {
		if resp.Header.Get(h) == "" {
			t.Errorf("%s not set", h)
		}
	}
	if resp.Header.Get("Set-Cookie") == "" {
		t.Error("first visit should set the session cookie")
	}
}

func TestCORS(t *testing.T) {
	cfg := testConfig()
	cfg.Security.CORSAllowedOrigins = []string{"https://app.example"}
	env := newTestEnv(t, cfg)

	req, _ := http.NewRequest(http.MethodOptions, env.srv.URL+"/api/datasets", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, _ := env.do(req)
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}

	req, _ = http.NewRequest(http.MethodGet, env.srv.URL+"/api/datasets", nil)
	req.Header.Set("Origin", "https://evil.example")
	resp, _ = env.do(req)
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("disallowed origin got %q", got)
	}
}
