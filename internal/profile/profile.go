// Package profile computes descriptive information about a single dataset.
//
// A Profiler is bound to one immutable dataset.Dataset. Every query is a pure
// function of that snapshot; when a dataset is edited the caller builds a new
// Profiler instead of updating the old one.
package profile

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/csvprof/internal/dataset"
)

// Profiler answers read-only questions about one dataset.
type Profiler struct {
	ds *dataset.Dataset
}

// New binds a Profiler to ds.
func New(ds *dataset.Dataset) *Profiler {
	return &Profiler{ds: ds}
}

// Dataset returns the bound dataset.
func (p *Profiler) Dataset() *dataset.Dataset {
	return p.ds
}

// ColumnInfo is the name and dtype label of one column.
type ColumnInfo struct {
	Name  string `json:"name"`
	Dtype string `json:"dtype"`
}

// Info is the shape of a dataset.
type Info struct {
	Rows    int          `json:"rows"`
	Columns int          `json:"columns"`
	Fields  []ColumnInfo `json:"fields"`
}

// Info returns the row count, column count and dtype of every column.
func (p *Profiler) Info() Info {
	info := Info{
		Rows:    p.ds.NumRows(),
		Columns: p.ds.NumCols(),
		Fields:  make([]ColumnInfo, 0, p.ds.NumCols()),
	}
	for _, col := range p.ds.Columns() {
		info.Fields = append(info.Fields, ColumnInfo{Name: col.Name, Dtype: col.Type.String()})
	}
	return info
}

// BasicInfo renders Info as human-readable text.
func (p *Profiler) BasicInfo() string {
	info := p.Info()

	var b strings.Builder
	fmt.Fprintf(&b, "Rows: %d\n", info.Rows)
	fmt.Fprintf(&b, "Columns: %d\n", info.Columns)

	names := make([]string, len(info.Fields))
	for i, f := range info.Fields {
		names[i] = f.Name
	}
	fmt.Fprintf(&b, "Column names: %s\n", strings.Join(names, ", "))

	b.WriteString("Data types:\n")
	for _, f := range info.Fields {
		fmt.Fprintf(&b, "  %s: %s\n", f.Name, f.Dtype)
	}
	return b.String()
}

// NumericColumns returns the int64 and float64 columns in column order.
func (p *Profiler) NumericColumns() []string {
	out := []string{}
	for _, col := range p.ds.Columns() {
		if col.Type.IsNumeric() {
			out = append(out, col.Name)
		}
	}
	return out
}

// CategoricalColumns returns the text columns in column order. Bool columns
// are neither numeric nor categorical.
func (p *Profiler) CategoricalColumns() []string {
	out := []string{}
	for _, col := range p.ds.Columns() {
		if col.Type.IsCategorical() {
			out = append(out, col.Name)
		}
	}
	return out
}

// MissingRow is the null count of one column.
type MissingRow struct {
	Column  string  `json:"column"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// MissingValues returns one row per column, including columns with no
// missing cells. Percent is 100*count/rows, or 0 for an empty dataset.
func (p *Profiler) MissingValues() []MissingRow {
	rows := p.ds.NumRows()
	out := make([]MissingRow, 0, p.ds.NumCols())
	for _, col := range p.ds.Columns() {
		n := col.NullCount()
		pct := 0.0
		if rows > 0 {
			pct = 100 * float64(n) / float64(rows)
		}
		out = append(out, MissingRow{Column: col.Name, Count: n, Percent: pct})
	}
	return out
}

// TotalMissing returns the number of missing cells in the dataset.
func (p *Profiler) TotalMissing() int {
	return p.ds.TotalMissing()
}

// Head returns up to n rows formatted for display.
func (p *Profiler) Head(n int) [][]string {
	return p.ds.Head(n)
}
