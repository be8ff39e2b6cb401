package profile

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// StatNames are the rows of a StatsTable, in order.
var StatNames = []string{"count", "mean", "std", "min", "25%", "50%", "75%", "max"}

// Value is a statistic that may be undefined. NaN and infinities encode as
// JSON null.
type Value float64

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

// IsNaN reports whether the statistic is undefined.
func (v Value) IsNaN() bool {
	return math.IsNaN(float64(v))
}

// String formats the value with six significant digits, or "NaN".
func (v Value) String() string {
	if v.IsNaN() {
		return "NaN"
	}
	return strconv.FormatFloat(float64(v), 'g', 6, 64)
}

// Summary is the describe output for one numeric column.
type Summary struct {
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
}

// Describe summarizes values. Std uses the N-1 denominator. Statistics that
// need more values than are present are NaN.
func Describe(values []float64) Summary {
	s := Summary{
		Count:  len(values),
		Mean:   math.NaN(),
		Std:    math.NaN(),
		Min:    math.NaN(),
		Q1:     math.NaN(),
		Median: math.NaN(),
		Q3:     math.NaN(),
		Max:    math.NaN(),
	}
	if len(values) == 0 {
		return s
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	s.Mean = stat.Mean(sorted, nil)
	if len(sorted) > 1 {
		s.Std = stat.StdDev(sorted, nil)
	}
	s.Min = floats.Min(sorted)
	s.Max = floats.Max(sorted)
	s.Q1 = Quantile(sorted, 0.25)
	s.Median = Quantile(sorted, 0.5)
	s.Q3 = Quantile(sorted, 0.75)
	return s
}

// values lists the summary in StatNames order.
func (s Summary) values() []Value {
	return []Value{
		Value(s.Count),
		Value(s.Mean),
		Value(s.Std),
		Value(s.Min),
		Value(s.Q1),
		Value(s.Median),
		Value(s.Q3),
		Value(s.Max),
	}
}

// Quantile returns the p-quantile of sorted using linear interpolation
// between the closest ranks at h = (n-1)p. sorted must be ascending.
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 || p < 0 || p > 1 {
		return math.NaN()
	}
	h := float64(n-1) * p
	lo := int(math.Floor(h))
	hi := int(math.Ceil(h))
	if lo == hi {
		return sorted[lo]
	}
	f := h - float64(lo)
	if d := sorted[hi] - sorted[lo]; !math.IsInf(d, 0) {
		return sorted[lo] + f*d
	}
	// The gap overflows; weight the endpoints instead.
	return sorted[lo]*(1-f) + sorted[hi]*f
}

// StatRow is one statistic across every numeric column.
type StatRow struct {
	Stat   string  `json:"stat"`
	Values []Value `json:"values"`
}

// StatsTable is the describe table: one column per numeric dataset column
// and one row per entry of StatNames.
type StatsTable struct {
	Columns []string  `json:"columns"`
	Rows    []StatRow `json:"rows"`
}

// Empty reports whether the table has no columns.
func (t StatsTable) Empty() bool {
	return len(t.Columns) == 0
}

// Get returns one cell of the table.
func (t StatsTable) Get(statName, column string) (Value, bool) {
	c := -1
	for i, name := range t.Columns {
		if name == column {
			c = i
			break
		}
	}
	if c < 0 {
		return 0, false
	}
	for _, row := range t.Rows {
		if row.Stat == statName {
			return row.Values[c], true
		}
	}
	return 0, false
}

// SummaryStats describes every numeric column, skipping missing cells. A
// dataset without numeric columns yields an empty table.
func (p *Profiler) SummaryStats() StatsTable {
	t := StatsTable{Columns: []string{}, Rows: []StatRow{}}

	var summaries [][]Value
	for _, col := range p.ds.Columns() {
		if !col.Type.IsNumeric() {
			continue
		}
		t.Columns = append(t.Columns, col.Name)
		summaries = append(summaries, Describe(col.Floats()).values())
	}
	if len(t.Columns) == 0 {
		return t
	}

	for i, name := range StatNames {
		row := StatRow{Stat: name, Values: make([]Value, len(summaries))}
		for c, s := range summaries {
			row.Values[c] = s[i]
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}
