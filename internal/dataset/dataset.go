package dataset

import (
	"fmt"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// mem is shared by every builder in the package. The Go allocator leaves
// buffer lifetime to the garbage collector.
var mem = memory.NewGoAllocator()

// Dataset is an immutable table of named, typed columns of equal length.
type Dataset struct {
	schema  *arrow.Schema
	columns []arrow.Array
	rows    int
}

// Column is a read-only view of one column of a Dataset.
type Column struct {
	Name string
	Type ColumnType
	arr  arrow.Array
}

func newDataset(names []string, columns []arrow.Array, rows int) *Dataset {
	fields := make([]arrow.Field, len(names))
	for i, name := range names {
		fields[i] = arrow.Field{Name: name, Type: columns[i].DataType(), Nullable: true}
	}
	return &Dataset{
		schema:  arrow.NewSchema(fields, nil),
		columns: columns,
		rows:    rows,
	}
}

// NumRows returns the number of rows.
func (d *Dataset) NumRows() int { return d.rows }

// NumCols returns the number of columns.
func (d *Dataset) NumCols() int { return len(d.columns) }

// Schema returns the arrow schema of the dataset.
func (d *Dataset) Schema() *arrow.Schema { return d.schema }

// ColumnNames returns the column names in order.
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.columns))
	for i := range d.columns {
		names[i] = d.schema.Field(i).Name
	}
	return names
}

// Column returns the column at index i.
func (d *Dataset) Column(i int) Column {
	return Column{
		Name: d.schema.Field(i).Name,
		Type: typeFromArrow(d.columns[i].DataType()),
		arr:  d.columns[i],
	}
}

// Columns returns every column in order.
func (d *Dataset) Columns() []Column {
	cols := make([]Column, len(d.columns))
	for i := range d.columns {
		cols[i] = d.Column(i)
	}
	return cols
}

// ColumnIndex returns the index of the named column, or -1.
func (d *Dataset) ColumnIndex(name string) int {
	for i := range d.columns {
		if d.schema.Field(i).Name == name {
			return i
		}
	}
	return -1
}

// ColumnByName looks up a column by exact name.
func (d *Dataset) ColumnByName(name string) (Column, bool) {
	i := d.ColumnIndex(name)
	if i < 0 {
		return Column{}, false
	}
	return d.Column(i), true
}

// TotalMissing returns the number of missing cells across all columns.
func (d *Dataset) TotalMissing() int {
	total := 0
	for _, arr := range d.columns {
		total += arr.NullN()
	}
	return total
}

// Record returns the dataset as an arrow record. The caller must Release it.
func (d *Dataset) Record() arrow.Record {
	return array.NewRecord(d.schema, d.columns, int64(d.rows))
}

// Head returns the first n rows formatted as strings. Missing cells are empty.
func (d *Dataset) Head(n int) [][]string {
	if n > d.rows || n < 0 {
		n = d.rows
	}
	out := make([][]string, n)
	for r := 0; r < n; r++ {
		row := make([]string, len(d.columns))
		for c := range d.columns {
			row[c] = d.Column(c).Cell(r)
		}
		out[r] = row
	}
	return out
}

// Equal reports whether two datasets have the same column names, types and cells.
func (d *Dataset) Equal(o *Dataset) bool {
	if d == nil || o == nil {
		return d == o
	}
	if d.rows != o.rows || len(d.columns) != len(o.columns) {
		return false
	}
	for i := range d.columns {
		if d.schema.Field(i).Name != o.schema.Field(i).Name {
			return false
		}
		if !array.Equal(d.columns[i], o.columns[i]) {
			return false
		}
	}
	return true
}

// Len returns the number of cells in the column.
func (c Column) Len() int { return c.arr.Len() }

// IsNull reports whether row i is missing.
func (c Column) IsNull(i int) bool { return c.arr.IsNull(i) }

// NullCount returns the number of missing cells.
func (c Column) NullCount() int { return c.arr.NullN() }

// Array exposes the underlying arrow array.
func (c Column) Array() arrow.Array { return c.arr }

// Float returns row i as a float64. ok is false for missing or non-numeric cells.
func (c Column) Float(i int) (float64, bool) {
	if c.arr.IsNull(i) {
		return 0, false
	}
	switch a := c.arr.(type) {
	case *array.Int64:
		return float64(a.Value(i)), true
	case *array.Float64:
		return a.Value(i), true
	default:
		return 0, false
	}
}

// Floats returns the non-missing values of a numeric column in row order.
func (c Column) Floats() []float64 {
	out := make([]float64, 0, c.arr.Len()-c.arr.NullN())
	for i := 0; i < c.arr.Len(); i++ {
		if v, ok := c.Float(i); ok {
			out = append(out, v)
		}
	}
	return out
}

// Cell formats row i for display and CSV output. Missing cells are empty.
func (c Column) Cell(i int) string {
	if c.arr.IsNull(i) {
		return ""
	}
	switch a := c.arr.(type) {
	case *array.Int64:
		return strconv.FormatInt(a.Value(i), 10)
	case *array.Float64:
		return strconv.FormatFloat(a.Value(i), 'g', -1, 64)
	case *array.Boolean:
		if a.Value(i) {
			return "True"
		}
		return "False"
	case *array.String:
		return a.Value(i)
	default:
		return fmt.Sprint(a.GetOneForMarshal(i))
	}
}
