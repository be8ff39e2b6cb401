package profile

import (
	"encoding/json"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/JonMunkholm/csvprof/internal/dataset"
)

func newProfiler(t *testing.T, input string) *Profiler {
	t.Helper()
	ds, err := dataset.ParseBytes([]byte(input))
	if err != nil {
		t.Fatalf("ParseBytes() error = %v", err)
	}
	return New(ds)
}

func TestProfiler_ExampleDataset(t *testing.T) {
	p := newProfiler(t, "x,y\n1,a\n2,b\n,c\n")

	if got := p.NumericColumns(); !reflect.DeepEqual(got, []string{"x"}) {
		t.Errorf("NumericColumns() = %v, want [x]", got)
	}
	if got := p.CategoricalColumns(); !reflect.DeepEqual(got, []string{"y"}) {
		t.Errorf("CategoricalColumns() = %v, want [y]", got)
	}

	missing := p.MissingValues()
	if len(missing) != 2 {
		t.Fatalf("MissingValues() len = %d, want 2", len(missing))
	}
	if missing[0].Column != "x" || missing[0].Count != 1 {
		t.Errorf("x missing = %+v, want count 1", missing[0])
	}
	if math.Abs(missing[0].Percent-33.33) > 0.01 {
		t.Errorf("x percent = %v, want ~33.33", missing[0].Percent)
	}
	if missing[1].Column != "y" || missing[1].Count != 0 || missing[1].Percent != 0 {
		t.Errorf("y missing = %+v, want count 0 percent 0", missing[1])
	}
	if p.TotalMissing() != 1 {
		t.Errorf("TotalMissing() = %d, want 1", p.TotalMissing())
	}
}

func TestProfiler_BasicInfo(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "typed columns",
			input: "id,name,ok\n1,a,true\n",
			want:  []string{"Rows: 1", "Columns: 3", "Column names: id, name, ok", "id: int64", "name: object", "ok: bool"},
		},
		{
			name:  "zero rows",
			input: "a,b\n",
			want:  []string{"Rows: 0", "Columns: 2", "a: float64"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := newProfiler(t, tt.input).BasicInfo()
			for _, w := range tt.want {
				if !strings.Contains(info, w) {
					t.Errorf("BasicInfo() missing %q in:\n%s", w, info)
				}
			}
		})
	}
}

func TestProfiler_PartitionIsDisjoint(t *testing.T) {
	inputs := []string{
		"a,b,c,d\n1,x,true,2.5\n",
		"only\nfoo\n",
		"n\n1\n",
		"a,b\n",
		"flag\ntrue\nfalse\n",
	}

	for _, in := range inputs {
		p := newProfiler(t, in)
		all := make(map[string]bool)
		for _, name := range p.Dataset().ColumnNames() {
			all[name] = true
		}
		seen := make(map[string]bool)
		for _, name := range append(p.NumericColumns(), p.CategoricalColumns()...) {
			if !all[name] {
				t.Errorf("%q: %s is not a dataset column", in, name)
			}
			if seen[name] {
				t.Errorf("%q: %s is both numeric and categorical", in, name)
			}
			seen[name] = true
		}
	}
}

func TestProfiler_SummaryStats(t *testing.T) {
	p := newProfiler(t, "a,b,label\n1,10,x\n2,,y\n3,30,z\n4,40,w\n")
	stats := p.SummaryStats()

	if !reflect.DeepEqual(stats.Columns, []string{"a", "b"}) {
		t.Fatalf("Columns = %v, want [a b]", stats.Columns)
	}
	if len(stats.Rows) != len(StatNames) {
		t.Fatalf("Rows = %d, want %d", len(stats.Rows), len(StatNames))
	}
	for i, row := range stats.Rows {
		if row.Stat != StatNames[i] {
			t.Errorf("row %d = %s, want %s", i, row.Stat, StatNames[i])
		}
	}

	tests := []struct {
		stat   string
		column string
		want   float64
	}{
		{"count", "a", 4},
		{"mean", "a", 2.5},
		{"std", "a", 1.2909944487358056},
		{"min", "a", 1},
		{"25%", "a", 1.75},
		{"50%", "a", 2.5},
		{"75%", "a", 3.25},
		{"max", "a", 4},
		{"count", "b", 3},
		{"mean", "b", 80.0 / 3},
		{"50%", "b", 30},
	}
	for _, tt := range tests {
		got, ok := stats.Get(tt.stat, tt.column)
		if !ok {
			t.Errorf("Get(%s, %s) not found", tt.stat, tt.column)
			continue
		}
		if math.Abs(float64(got)-tt.want) > 1e-9 {
			t.Errorf("%s(%s) = %v, want %v", tt.stat, tt.column, got, tt.want)
		}
	}

	for _, col := range stats.Columns {
		count, _ := stats.Get("count", col)
		if int(count) > p.Dataset().NumRows() {
			t.Errorf("count(%s) = %v exceeds rows", col, count)
		}
	}
}

func TestProfiler_SummaryStatsNoNumeric(t *testing.T) {
	stats := newProfiler(t, "s\nfoo\nbar\n").SummaryStats()
	if !stats.Empty() || len(stats.Rows) != 0 {
		t.Errorf("SummaryStats() = %+v, want empty", stats)
	}
}

func TestProfiler_SummaryStatsUndefined(t *testing.T) {
	p := newProfiler(t, "one,none\n5,\n")
	stats := p.SummaryStats()

	std, _ := stats.Get("std", "one")
	if !std.IsNaN() {
		t.Errorf("std of one value = %v, want NaN", std)
	}
	mean, _ := stats.Get("mean", "none")
	if !mean.IsNaN() {
		t.Errorf("mean of no values = %v, want NaN", mean)
	}
	count, _ := stats.Get("count", "none")
	if count != 0 {
		t.Errorf("count of no values = %v, want 0", count)
	}

	b, err := json.Marshal(stats)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	if !strings.Contains(string(b), "null") {
		t.Errorf("NaN did not encode as null: %s", b)
	}
}

func TestProfiler_SummaryStatsNonFinite(t *testing.T) {
	p := newProfiler(t, "x,wide\n1,-1e308\ninf,1e308\n-inf,0\n")
	stats := p.SummaryStats()

	if count, _ := stats.Get("count", "x"); count != 3 {
		t.Errorf("count = %v, want 3", count)
	}
	if hi, _ := stats.Get("max", "x"); !math.IsInf(float64(hi), 1) {
		t.Errorf("max = %v, want +Inf", hi)
	}
	// Quartiles across a gap wider than float64 stay finite.
	if q1, _ := stats.Get("25%", "wide"); q1 != -5e307 {
		t.Errorf("25%% = %v, want -5e307", q1)
	}

	b, err := json.Marshal(stats)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	if !strings.Contains(string(b), "null") {
		t.Errorf("infinite stats did not encode as null: %s", b)
	}
}

func TestProfiler_MissingPercentConsistent(t *testing.T) {
	p := newProfiler(t, "a,b,c\n1,,x\n,,y\n3,,\n4,5,z\n5,6,w\n6,7,\n7,8,v\n")
	rows := p.Dataset().NumRows()
	for _, m := range p.MissingValues() {
		if got := int(math.Round(m.Percent * float64(rows) / 100)); got != m.Count {
			t.Errorf("%s: round(percent*rows/100) = %d, count = %d", m.Column, got, m.Count)
		}
	}
}

func TestProfiler_MissingValuesZeroRows(t *testing.T) {
	for _, m := range newProfiler(t, "a,b\n").MissingValues() {
		if m.Count != 0 || m.Percent != 0 {
			t.Errorf("%s = %+v, want zero", m.Column, m)
		}
	}
}

func TestProfiler_Idempotent(t *testing.T) {
	p := newProfiler(t, "a,b,c\n1,x,\n2,y,2.5\n,z,3.5\n")

	if !reflect.DeepEqual(p.BasicInfo(), p.BasicInfo()) {
		t.Error("BasicInfo() differs between calls")
	}
	if !reflect.DeepEqual(p.MissingValues(), p.MissingValues()) {
		t.Error("MissingValues() differs between calls")
	}
	if !reflect.DeepEqual(p.NumericColumns(), p.NumericColumns()) {
		t.Error("NumericColumns() differs between calls")
	}
	if !reflect.DeepEqual(p.CategoricalColumns(), p.CategoricalColumns()) {
		t.Error("CategoricalColumns() differs between calls")
	}

	first, _ := json.Marshal(p.SummaryStats())
	second, _ := json.Marshal(p.SummaryStats())
	if string(first) != string(second) {
		t.Errorf("SummaryStats() differs between calls:\n%s\n%s", first, second)
	}

	// Mutating a result must not leak into the next call.
	cols := p.NumericColumns()
	cols[0] = "changed"
	if p.NumericColumns()[0] == "changed" {
		t.Error("NumericColumns() returned shared storage")
	}
}

func TestQuantile(t *testing.T) {
	tests := []struct {
		sorted []float64
		p      float64
		want   float64
	}{
		{[]float64{1, 2, 3, 4}, 0.5, 2.5},
		{[]float64{1, 2, 3, 4}, 0.25, 1.75},
		{[]float64{1, 2, 3, 4, 5}, 0.5, 3},
		{[]float64{7}, 0.75, 7},
		{[]float64{0, 10}, 0.1, 1},
		{[]float64{1, 2}, 0, 1},
		{[]float64{1, 2}, 1, 2},
		{[]float64{-1e308, 1e308}, 0.5, 0},
	}

	for _, tt := range tests {
		if got := Quantile(tt.sorted, tt.p); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("Quantile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
		}
	}

	if !math.IsNaN(Quantile(nil, 0.5)) {
		t.Error("Quantile(nil) should be NaN")
	}
}
