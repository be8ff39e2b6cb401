package chart

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/JonMunkholm/csvprof/internal/dataset"
	"github.com/JonMunkholm/csvprof/internal/profile"
)

// DefaultBins is the histogram bin count when a request leaves it unset.
const DefaultBins = 10

// MaxBins caps histogram resolution.
const MaxBins = 200

// Request selects what to draw. X and Y name columns; empty X picks the first
// eligible column. Y is optional for bar and pie charts.
type Request struct {
	Kind Kind        `json:"kind"`
	X    string      `json:"x"`
	Y    string      `json:"y,omitempty"`
	Agg  Aggregation `json:"agg"`
	Bins int         `json:"bins,omitempty"`
}

// Point is one (x, y) pair of a line or scatter chart.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// BoxStats is the five-number summary of one column.
type BoxStats struct {
	Column string  `json:"column"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
}

// Figure is chart data ready to render. Which fields are set depends on Kind:
// Labels and Values for histogram, bar and pie; Points for line and scatter;
// Boxes for box. Infinite and NaN cells never reach a figure; an aggregate
// that overflows is kept and encodes as null.
type Figure struct {
	Kind   Kind            `json:"kind"`
	Title  string          `json:"title"`
	XLabel string          `json:"x_label,omitempty"`
	YLabel string          `json:"y_label,omitempty"`
	Labels []string        `json:"labels,omitempty"`
	Values []profile.Value `json:"values,omitempty"`
	Points []Point    `json:"points,omitempty"`
	Boxes  []BoxStats `json:"boxes,omitempty"`
}

// Build computes the figure for req over ds.
func Build(ds *dataset.Dataset, req Request) (Figure, error) {
	switch req.Kind {
	case Histogram:
		return histogram(ds, req)
	case Bar, Pie:
		return categorical(ds, req)
	case Line, Scatter:
		return pairs(ds, req)
	case Box:
		return box(ds, req)
	default:
		return Figure{}, fmt.Errorf("%w: kind %d", ErrUnknownKind, int(req.Kind))
	}
}

// pick resolves a requested column name, falling back to the first column
// accepted by ok when name is empty.
func pick(ds *dataset.Dataset, name string, ok func(dataset.ColumnType) bool) (dataset.Column, error) {
	if name == "" {
		for _, col := range ds.Columns() {
			if ok(col.Type) {
				return col, nil
			}
		}
		return dataset.Column{}, ErrEmptySelection
	}
	col, found := ds.ColumnByName(name)
	if !found {
		return dataset.Column{}, fmt.Errorf("%w: %s", dataset.ErrUnknownColumn, name)
	}
	if !ok(col.Type) {
		return dataset.Column{}, fmt.Errorf("%w: %s is %s", ErrColumnType, name, col.Type)
	}
	return col, nil
}

func hasColumn(ds *dataset.Dataset, ok func(dataset.ColumnType) bool) bool {
	for _, col := range ds.Columns() {
		if ok(col.Type) {
			return true
		}
	}
	return false
}

func numeric(t dataset.ColumnType) bool     { return t.IsNumeric() }
func categoryType(t dataset.ColumnType) bool { return t.IsCategorical() }

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// finiteFloat is Column.Float that also rejects NaN and infinities.
func finiteFloat(col dataset.Column, i int) (float64, bool) {
	v, ok := col.Float(i)
	return v, ok && isFinite(v)
}

func finiteFloats(col dataset.Column) []float64 {
	all := col.Floats()
	out := all[:0]
	for _, v := range all {
		if isFinite(v) {
			out = append(out, v)
		}
	}
	return out
}

func histogram(ds *dataset.Dataset, req Request) (Figure, error) {
	if !hasColumn(ds, numeric) {
		return Figure{}, ErrEmptySelection
	}
	col, err := pick(ds, req.X, numeric)
	if err != nil {
		return Figure{}, err
	}

	bins := req.Bins
	if bins <= 0 {
		bins = DefaultBins
	}
	if bins > MaxBins {
		bins = MaxBins
	}

	fig := Figure{
		Kind:   Histogram,
		Title:  "Distribution of " + col.Name,
		XLabel: col.Name,
		YLabel: "count",
		Labels: []string{},
		Values: []profile.Value{},
	}

	values := finiteFloats(col)
	if len(values) == 0 {
		return fig, nil
	}
	lo, hi := floats.Min(values), floats.Max(values)
	if lo == hi {
		fig.Labels = append(fig.Labels, formatNum(lo))
		fig.Values = append(fig.Values, profile.Value(len(values)))
		return fig, nil
	}

	// Bins are half-open except the last, which includes the maximum. Spans
	// are halved so that hi-lo cannot overflow.
	half := hi/2 - lo/2
	step := half / float64(bins)
	counts := make([]profile.Value, bins)
	for _, v := range values {
		i := int((v/2 - lo/2) / half * float64(bins))
		i = min(max(i, 0), bins-1)
		counts[i]++
	}
	for i := 0; i < bins; i++ {
		start := lo + float64(i)*step + float64(i)*step
		end := hi
		if i < bins-1 {
			end = start + step + step
		}
		fig.Labels = append(fig.Labels, fmt.Sprintf("%s to %s", formatNum(start), formatNum(end)))
	}
	fig.Values = counts
	return fig, nil
}

func categorical(ds *dataset.Dataset, req Request) (Figure, error) {
	if !hasColumn(ds, categoryType) {
		return Figure{}, ErrEmptySelection
	}
	x, err := pick(ds, req.X, categoryType)
	if err != nil {
		return Figure{}, err
	}

	agg := req.Agg
	var y dataset.Column
	withY := req.Y != ""
	if withY {
		if y, err = pick(ds, req.Y, numeric); err != nil {
			return Figure{}, err
		}
	} else {
		agg = Count
	}

	// Categories keep first-appearance order.
	var order []string
	groups := make(map[string][]float64)
	for i := 0; i < x.Len(); i++ {
		if x.IsNull(i) {
			continue
		}
		key := x.Cell(i)
		v := 1.0
		if withY {
			var ok bool
			if v, ok = finiteFloat(y, i); !ok {
				continue
			}
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], v)
	}

	fig := Figure{
		Kind:   req.Kind,
		XLabel: x.Name,
		Labels: make([]string, 0, len(order)),
		Values: make([]profile.Value, 0, len(order)),
	}
	if withY {
		fig.YLabel = fmt.Sprintf("%s of %s", agg, y.Name)
		fig.Title = fmt.Sprintf("%s of %s by %s", agg, y.Name, x.Name)
	} else {
		fig.YLabel = "count"
		fig.Title = "Count by " + x.Name
	}
	for _, key := range order {
		fig.Labels = append(fig.Labels, key)
		fig.Values = append(fig.Values, profile.Value(aggregate(agg, groups[key])))
	}
	return fig, nil
}

// aggregate reduces a non-empty group.
func aggregate(a Aggregation, values []float64) float64 {
	switch a {
	case Count:
		return float64(len(values))
	case Sum:
		return floats.Sum(values)
	case Mean:
		return stat.Mean(values, nil)
	case Min:
		return floats.Min(values)
	case Max:
		return floats.Max(values)
	case Median:
		sorted := make([]float64, len(values))
		copy(sorted, values)
		sort.Float64s(sorted)
		return profile.Quantile(sorted, 0.5)
	default:
		return math.NaN()
	}
}

func pairs(ds *dataset.Dataset, req Request) (Figure, error) {
	if !hasColumn(ds, numeric) {
		return Figure{}, ErrEmptySelection
	}
	x, err := pick(ds, req.X, numeric)
	if err != nil {
		return Figure{}, err
	}

	var y dataset.Column
	if req.Y == "" {
		y = x
		for _, col := range ds.Columns() {
			if col.Type.IsNumeric() && col.Name != x.Name {
				y = col
				break
			}
		}
	} else if y, err = pick(ds, req.Y, numeric); err != nil {
		return Figure{}, err
	}

	fig := Figure{
		Kind:   req.Kind,
		Title:  fmt.Sprintf("%s vs %s", y.Name, x.Name),
		XLabel: x.Name,
		YLabel: y.Name,
		Points: []Point{},
	}
	for i := 0; i < x.Len(); i++ {
		xv, okX := finiteFloat(x, i)
		yv, okY := finiteFloat(y, i)
		if okX && okY {
			fig.Points = append(fig.Points, Point{X: xv, Y: yv})
		}
	}
	return fig, nil
}

func box(ds *dataset.Dataset, req Request) (Figure, error) {
	if !hasColumn(ds, numeric) {
		return Figure{}, ErrEmptySelection
	}

	var cols []dataset.Column
	if req.X != "" {
		col, err := pick(ds, req.X, numeric)
		if err != nil {
			return Figure{}, err
		}
		cols = append(cols, col)
	} else {
		for _, col := range ds.Columns() {
			if col.Type.IsNumeric() {
				cols = append(cols, col)
			}
		}
	}

	fig := Figure{Kind: Box, Title: "Box plot", Boxes: []BoxStats{}}
	if len(cols) == 1 {
		fig.Title = "Box plot of " + cols[0].Name
	}
	for _, col := range cols {
		s := profile.Describe(finiteFloats(col))
		if s.Count == 0 {
			continue
		}
		fig.Boxes = append(fig.Boxes, BoxStats{
			Column: col.Name,
			Min:    s.Min,
			Q1:     s.Q1,
			Median: s.Median,
			Q3:     s.Q3,
			Max:    s.Max,
		})
	}
	return fig, nil
}

func formatNum(f float64) string {
	return fmt.Sprintf("%.4g", f)
}
