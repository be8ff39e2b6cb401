// Package templates holds the HTML pages as templ components.
//
// The *.templ files are the source; *_templ.go is generated from them with
// `templ generate` and committed. This file carries the page parameter types
// and the plain Go that shapes service data into what the templates print.
package templates

//go:generate templ generate

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/csvprof/internal/chart"
	"github.com/JonMunkholm/csvprof/internal/core"
	"github.com/JonMunkholm/csvprof/internal/profile"
)

// DatasetRow is one loaded dataset in the upload page list.
type DatasetRow struct {
	Name    string
	Rows    int
	Columns int
	Missing int
}

// UploadOutcome reports one file of a batch upload.
type UploadOutcome struct {
	Name    string
	OK      bool
	Message string
	Code    string
}

// AnalyzeParams carries everything the analyze page shows for one dataset.
// Profile is nil when no dataset is selected.
type AnalyzeParams struct {
	User     string
	Names    []string
	Selected string
	Notice   string
	Profile  *profile.Profiler
	HeadRows int
}

// CompareParams carries the compare page state. Result is nil until two
// datasets are picked.
type CompareParams struct {
	User   string
	Names  []string
	A, B   string
	Notice string
	Result *core.Comparison
}

type tableData struct {
	Header []string
	Rows   [][]string
}

// analyzeView is the selected dataset's profile, formatted for display.
type analyzeView struct {
	Name        string
	Info        string
	Numeric     []string
	Categorical []string
	Columns     []string
	Head        tableData
	Stats       tableData
	HasStats    bool
	Missing     tableData
	MaxRow      int
}

func newAnalyzeView(params AnalyzeParams) analyzeView {
	prof := params.Profile
	ds := prof.Dataset()
	v := analyzeView{
		Name:        params.Selected,
		Info:        prof.BasicInfo(),
		Numeric:     prof.NumericColumns(),
		Categorical: prof.CategoricalColumns(),
		Columns:     ds.ColumnNames(),
		MaxRow:      max(ds.NumRows()-1, 0),
	}

	v.Head.Header = append([]string{"#"}, v.Columns...)
	for i, r := range prof.Head(params.HeadRows) {
		v.Head.Rows = append(v.Head.Rows, append([]string{strconv.Itoa(i)}, r...))
	}

	stats := prof.SummaryStats()
	v.HasStats = !stats.Empty()
	v.Stats.Header = append([]string{""}, stats.Columns...)
	for _, r := range stats.Rows {
		row := []string{r.Stat}
		for _, val := range r.Values {
			row = append(row, val.String())
		}
		v.Stats.Rows = append(v.Stats.Rows, row)
	}

	v.Missing.Header = []string{"Column", "Missing", "Percent"}
	for _, m := range prof.MissingValues() {
		v.Missing.Rows = append(v.Missing.Rows,
			[]string{m.Column, strconv.Itoa(m.Count), fmt.Sprintf("%.2f%%", m.Percent)})
	}
	return v
}

func shapeTable(c *core.Comparison) tableData {
	return tableData{
		Header: []string{"", c.A.Name, c.B.Name},
		Rows: [][]string{
			{"Rows", strconv.Itoa(c.A.Rows), strconv.Itoa(c.B.Rows)},
			{"Columns", strconv.Itoa(c.A.Columns), strconv.Itoa(c.B.Columns)},
			{"Missing cells", strconv.Itoa(c.A.Missing), strconv.Itoa(c.B.Missing)},
		},
	}
}

func analyzeURL(name string) templ.SafeURL {
	return templ.URL("/analyze?dataset=" + url.QueryEscape(name))
}

func exportURL(name, format string) templ.SafeURL {
	return templ.URL("/api/datasets/" + url.PathEscape(name) + "/export?format=" + url.QueryEscape(format))
}

// editURL targets an analyze form handler for the named dataset.
func editURL(path, name string) templ.SafeURL {
	return templ.URL(path + "?dataset=" + url.QueryEscape(name))
}

func joinOrNone(names []string) string {
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}

func kindNames() []string {
	out := make([]string, len(chart.Kinds))
	for i, k := range chart.Kinds {
		out[i] = k.String()
	}
	return out
}

func aggNames() []string {
	out := make([]string, len(chart.Aggregations))
	for i, a := range chart.Aggregations {
		out[i] = a.String()
	}
	return out
}
