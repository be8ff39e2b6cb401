package templates

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/csvprof/internal/core"
	"github.com/JonMunkholm/csvprof/internal/dataset"
	"github.com/JonMunkholm/csvprof/internal/profile"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return buf.String()
}

func wantContains(t *testing.T, page string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestLayout_LoggedOutHidesNav(t *testing.T) {
	page := render(t, Welcome("", "Please enter a name."))
	wantContains(t, page, "<title>Welcome · csvprof</title>", `class="notice"`, `action="/login"`)
	if strings.Contains(page, `action="/logout"`) {
		t.Error("logged-out page shows the logout form")
	}

	page = render(t, Welcome("alice", ""))
	wantContains(t, page, `action="/logout"`, "Logged in as <strong>alice</strong>")
	if strings.Contains(page, `class="notice"`) {
		t.Error("empty notice rendered")
	}
}

func TestUploadPage_EscapesNames(t *testing.T) {
	rows := []DatasetRow{{Name: `<b>&"x".csv`, Rows: 3, Columns: 2, Missing: 1}}
	results := []UploadOutcome{
		{Name: "good.csv", OK: true},
		{Name: "bad.csv", Message: "Could not parse the file", Code: "FILE002"},
	}
	page := render(t, UploadPage("<eve>", rows, results))

	if strings.Contains(page, "<b>") || strings.Contains(page, "<eve>") {
		t.Error("user data rendered unescaped")
	}
	wantContains(t, page,
		"&lt;eve&gt;",
		"&lt;b&gt;&amp;&#34;x&#34;.csv",
		`href="/analyze?dataset=%3Cb%3E%26%22x%22.csv"`,
		`<span class="ok">loaded</span>`,
		"(FILE002)",
	)
}

func TestAnalyzePage(t *testing.T) {
	ds, err := dataset.ParseBytes([]byte("x,y\n1,a\n,b\n3,c\n"))
	if err != nil {
		t.Fatal(err)
	}
	page := render(t, AnalyzePage(AnalyzeParams{
		User:     "alice",
		Names:    []string{"t.csv", "q 1.csv"},
		Selected: "q 1.csv",
		Profile:  profile.New(ds),
		HeadRows: 2,
	}))
	wantContains(t, page,
		"Rows: 3",
		"Numeric: x",
		"Categorical: y",
		"33.33%",
		`<option value="q 1.csv" selected>`,
		`href="/api/datasets/q%201.csv/export?format=parquet"`,
		`action="/analyze/cell?dataset=q+1.csv"`,
		`max="2"`,
	)

	page = render(t, AnalyzePage(AnalyzeParams{User: "alice", Names: []string{"t.csv"}, Notice: "gone.csv is no longer loaded."}))
	wantContains(t, page, "no longer loaded")
	if strings.Contains(page, "Summary statistics") {
		t.Error("profile sections shown without a selection")
	}
}

func TestComparePage(t *testing.T) {
	page := render(t, ComparePage(CompareParams{User: "alice", Names: []string{"a.csv"}}))
	wantContains(t, page, "at least two datasets")

	c := &core.Comparison{
		A:             core.Side{Name: "a.csv", Rows: 3, Columns: 2, Missing: 1},
		B:             core.Side{Name: "b.csv", Rows: 4, Columns: 1},
		CommonColumns: []string{"x"},
		OnlyA:         []string{"y"},
	}
	page = render(t, ComparePage(CompareParams{User: "alice", Names: []string{"a.csv", "b.csv"}, A: "a.csv", B: "b.csv", Result: c}))
	wantContains(t, page, "In both: x", "Only in a.csv: y", "Only in b.csv: none", "<td>Missing cells</td><td>1</td><td>0</td>")
}

func TestErrorPage(t *testing.T) {
	page := render(t, ErrorPage("", "Dataset not found", "Upload it again.", "DS001"))
	wantContains(t, page, `role="alert"`, "Dataset not found", "Upload it again.", "Code: DS001")
}
