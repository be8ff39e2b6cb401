// Package chart turns a dataset column selection into a figure and renders it
// as an interactive HTML page.
//
// Chart kinds and aggregations are closed sets. Strings are converted with
// ParseKind and ParseAggregation at the request boundary; everything past
// that point switches on the typed values.
package chart

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptySelection is returned when a dataset has no columns of the type
	// a chart kind needs.
	ErrEmptySelection = errors.New("no eligible columns for this chart")

	// ErrColumnType is returned when a named column has the wrong type for
	// the requested chart.
	ErrColumnType = errors.New("column type not supported by chart")

	// ErrUnknownKind is returned by ParseKind and ParseAggregation.
	ErrUnknownKind = errors.New("unknown chart option")
)

// Kind is a chart type.
type Kind int

const (
	Histogram Kind = iota
	Bar
	Line
	Scatter
	Box
	Pie
)

// Kinds lists every chart kind in menu order.
var Kinds = []Kind{Histogram, Bar, Line, Scatter, Box, Pie}

func (k Kind) String() string {
	switch k {
	case Histogram:
		return "histogram"
	case Bar:
		return "bar"
	case Line:
		return "line"
	case Scatter:
		return "scatter"
	case Box:
		return "box"
	case Pie:
		return "pie"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ParseKind converts a case-insensitive kind name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if strings.EqualFold(strings.TrimSpace(s), k.String()) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: kind %q", ErrUnknownKind, s)
}

// Aggregation reduces the Y values of one category to a single number.
type Aggregation int

const (
	Count Aggregation = iota
	Sum
	Mean
	Min
	Max
	Median
)

// Aggregations lists every aggregation in menu order.
var Aggregations = []Aggregation{Count, Sum, Mean, Min, Max, Median}

func (a Aggregation) String() string {
	switch a {
	case Count:
		return "count"
	case Sum:
		return "sum"
	case Mean:
		return "mean"
	case Min:
		return "min"
	case Max:
		return "max"
	case Median:
		return "median"
	default:
		return fmt.Sprintf("Aggregation(%d)", int(a))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (a Aggregation) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// ParseAggregation converts a case-insensitive aggregation name. An empty
// string is Count.
func ParseAggregation(s string) (Aggregation, error) {
	if strings.TrimSpace(s) == "" {
		return Count, nil
	}
	for _, a := range Aggregations {
		if strings.EqualFold(strings.TrimSpace(s), a.String()) {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%w: aggregation %q", ErrUnknownKind, s)
}
