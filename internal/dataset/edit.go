package dataset

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// WithCell returns a copy of d with one cell replaced. The value is parsed
// against the column's existing type; null markers clear the cell.
func (d *Dataset) WithCell(row int, column, value string) (*Dataset, error) {
	c := d.ColumnIndex(column)
	if c < 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, column)
	}
	if row < 0 || row >= d.rows {
		return nil, fmt.Errorf("%w: row %d out of range [0, %d)", ErrInvalidValue, row, d.rows)
	}

	col := d.Column(c)
	b := array.NewBuilder(mem, col.Type.arrowType())
	defer b.Release()
	for i := 0; i < d.rows; i++ {
		if i == row {
			if err := appendCell(b, col.Type, value); err != nil {
				return nil, fmt.Errorf("column %s: %w", column, err)
			}
			continue
		}
		appendFrom(b, col, i)
	}

	columns := make([]arrow.Array, len(d.columns))
	copy(columns, d.columns)
	columns[c] = b.NewArray()
	return newDataset(d.ColumnNames(), columns, d.rows), nil
}

// WithoutRows returns a copy of d with the given row indexes removed.
// Duplicate indexes are ignored; any index out of range is an error.
func (d *Dataset) WithoutRows(rows []int) (*Dataset, error) {
	drop := make(map[int]struct{}, len(rows))
	for _, r := range rows {
		if r < 0 || r >= d.rows {
			return nil, fmt.Errorf("%w: row %d out of range [0, %d)", ErrInvalidValue, r, d.rows)
		}
		drop[r] = struct{}{}
	}

	keep := make([]int, 0, d.rows-len(drop))
	for i := 0; i < d.rows; i++ {
		if _, ok := drop[i]; !ok {
			keep = append(keep, i)
		}
	}

	columns := make([]arrow.Array, len(d.columns))
	for c := range d.columns {
		col := d.Column(c)
		b := array.NewBuilder(mem, col.Type.arrowType())
		for _, i := range keep {
			appendFrom(b, col, i)
		}
		columns[c] = b.NewArray()
		b.Release()
	}
	return newDataset(d.ColumnNames(), columns, len(keep)), nil
}

// appendFrom copies row i of col into b, which must match the column type.
func appendFrom(b array.Builder, col Column, i int) {
	if col.IsNull(i) {
		b.AppendNull()
		return
	}
	switch a := col.arr.(type) {
	case *array.Int64:
		b.(*array.Int64Builder).Append(a.Value(i))
	case *array.Float64:
		b.(*array.Float64Builder).Append(a.Value(i))
	case *array.Boolean:
		b.(*array.BooleanBuilder).Append(a.Value(i))
	case *array.String:
		b.(*array.StringBuilder).Append(a.Value(i))
	}
}
