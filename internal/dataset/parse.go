package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// ParseStats describes what the parser consumed.
type ParseStats struct {
	Bytes int64
	Rows  int
}

// Parse reads delimited text with a header row and infers a type for every
// column. Malformed input (ragged rows, bad quoting, no header) is an error.
func Parse(r io.Reader) (*Dataset, ParseStats, error) {
	src := newSourceReader(r)
	cr := csv.NewReader(src)
	cr.ReuseRecord = false

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ParseStats{}, ErrEmptyInput
	}
	if err != nil {
		return nil, ParseStats{}, fmt.Errorf("read header: %w", err)
	}

	var records [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) && errors.Is(perr.Err, csv.ErrFieldCount) {
				return nil, ParseStats{}, fmt.Errorf("line %d: expected %d fields, saw %d", perr.Line, len(header), len(rec))
			}
			return nil, ParseStats{}, fmt.Errorf("read row: %w", err)
		}
		records = append(records, rec)
	}

	names := columnNames(header)
	columns := make([]arrow.Array, len(names))
	for c := range names {
		cells := make([]string, len(records))
		for r, rec := range records {
			cells[r] = rec[c]
		}
		columns[c] = buildColumn(inferType(cells), cells)
	}

	return newDataset(names, columns, len(records)), ParseStats{Bytes: src.BytesRead(), Rows: len(records)}, nil
}

// ParseBytes is Parse over an in-memory upload.
func ParseBytes(b []byte) (*Dataset, error) {
	ds, _, err := Parse(bytes.NewReader(b))
	return ds, err
}

// columnNames fills blank header cells and suffixes repeated names so every
// column can be addressed by name.
func columnNames(header []string) []string {
	names := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		name := h
		if strings.TrimSpace(name) == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, dup := seen[name]; dup {
			base := name
			for {
				n++
				name = fmt.Sprintf("%s.%d", base, n)
				if _, taken := seen[name]; !taken {
					break
				}
			}
			seen[base] = n
		}
		seen[name] = 0
		names[i] = name
	}
	return names
}

// inferType picks the narrowest type that every non-missing cell satisfies.
// A column with no values at all is float64.
func inferType(cells []string) ColumnType {
	isInt, isFloat, isBool := true, true, true
	seen := false
	for _, cell := range cells {
		if IsNullMarker(cell) {
			continue
		}
		seen = true
		v := strings.TrimSpace(cell)
		if isInt {
			if _, err := strconv.ParseInt(v, 10, 64); err != nil {
				isInt = false
			}
		}
		if isFloat && !isInt {
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				isFloat = false
			}
		}
		if isBool {
			if _, ok := parseBool(v); !ok {
				isBool = false
			}
		}
		if !isInt && !isFloat && !isBool {
			return TypeString
		}
	}
	switch {
	case !seen:
		return TypeFloat
	case isInt:
		return TypeInt
	case isFloat:
		return TypeFloat
	case isBool:
		return TypeBool
	default:
		return TypeString
	}
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true":
		return true, true
	case "false":
		return false, true
	default:
		return false, false
	}
}

// buildColumn converts raw cells into an arrow array of the given type.
// Cells must already satisfy the type; inferType guarantees that.
func buildColumn(t ColumnType, cells []string) arrow.Array {
	b := array.NewBuilder(mem, t.arrowType())
	defer b.Release()
	for _, cell := range cells {
		if err := appendCell(b, t, cell); err != nil {
			b.AppendNull()
		}
	}
	return b.NewArray()
}

// appendCell parses a raw cell for column type t and appends it to b.
func appendCell(b array.Builder, t ColumnType, cell string) error {
	if IsNullMarker(cell) {
		b.AppendNull()
		return nil
	}
	v := strings.TrimSpace(cell)
	switch t {
	case TypeInt:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %q is not an integer", ErrInvalidValue, cell)
		}
		b.(*array.Int64Builder).Append(n)
	case TypeFloat:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: %q is not a number", ErrInvalidValue, cell)
		}
		b.(*array.Float64Builder).Append(f)
	case TypeBool:
		bv, ok := parseBool(v)
		if !ok {
			return fmt.Errorf("%w: %q is not true or false", ErrInvalidValue, cell)
		}
		b.(*array.BooleanBuilder).Append(bv)
	default:
		b.(*array.StringBuilder).Append(cell)
	}
	return nil
}
