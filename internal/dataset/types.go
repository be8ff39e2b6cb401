// Package dataset provides the typed, immutable columnar table used for
// uploaded files.
//
// A Dataset is backed by Apache Arrow arrays, one per column, each with a
// validity bitmap for missing cells. Column types are inferred once at parse
// time and never change afterwards; edits produce a new Dataset.
package dataset

import (
	"errors"

	"github.com/apache/arrow-go/v18/arrow"
)

var (
	// ErrEmptyInput is returned when an upload has no header row.
	ErrEmptyInput = errors.New("empty file: no columns to parse")

	// ErrUnknownColumn is returned when a column name is not in the dataset.
	ErrUnknownColumn = errors.New("column not found")

	// ErrInvalidValue is returned when an edited value does not fit the column type
	// or a row index is out of range.
	ErrInvalidValue = errors.New("invalid value")
)

// ColumnType is the inferred storage type of a column.
type ColumnType int

const (
	TypeInt ColumnType = iota
	TypeFloat
	TypeBool
	TypeString
)

// String returns the dtype label shown to users.
func (t ColumnType) String() string {
	switch t {
	case TypeInt:
		return "int64"
	case TypeFloat:
		return "float64"
	case TypeBool:
		return "bool"
	case TypeString:
		return "object"
	default:
		return "unknown"
	}
}

// IsNumeric reports whether the column holds integers or floats.
func (t ColumnType) IsNumeric() bool {
	return t == TypeInt || t == TypeFloat
}

// IsCategorical reports whether the column holds free text.
func (t ColumnType) IsCategorical() bool {
	return t == TypeString
}

func (t ColumnType) arrowType() arrow.DataType {
	switch t {
	case TypeInt:
		return arrow.PrimitiveTypes.Int64
	case TypeFloat:
		return arrow.PrimitiveTypes.Float64
	case TypeBool:
		return arrow.FixedWidthTypes.Boolean
	default:
		return arrow.BinaryTypes.String
	}
}

func typeFromArrow(dt arrow.DataType) ColumnType {
	switch dt.ID() {
	case arrow.INT64:
		return TypeInt
	case arrow.FLOAT64:
		return TypeFloat
	case arrow.BOOL:
		return TypeBool
	default:
		return TypeString
	}
}

// nullMarkers are the cell values read as missing.
var nullMarkers = map[string]struct{}{
	"":         {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-1.#IND":  {},
	"-1.#QNAN": {},
	"-NaN":     {},
	"-nan":     {},
	"1.#IND":   {},
	"1.#QNAN":  {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

// IsNullMarker reports whether a raw cell value is read as missing.
func IsNullMarker(s string) bool {
	_, ok := nullMarkers[s]
	return ok
}
