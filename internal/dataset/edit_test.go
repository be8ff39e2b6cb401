package dataset

import (
	"errors"
	"reflect"
	"testing"
)

func mustParse(t *testing.T, input string) *Dataset {
	t.Helper()
	ds, err := ParseBytes([]byte(input))
	if err != nil {
		t.Fatalf("ParseBytes() error = %v", err)
	}
	return ds
}

func TestWithCell(t *testing.T) {
	base := "n,f,b,s\n1,1.5,true,x\n2,2.5,false,y\n"

	tests := []struct {
		name    string
		row     int
		column  string
		value   string
		want    string
		wantErr error
	}{
		{name: "int", row: 0, column: "n", value: "42", want: "42"},
		{name: "float", row: 1, column: "f", value: "0.25", want: "0.25"},
		{name: "bool", row: 0, column: "b", value: "FALSE", want: "False"},
		{name: "string", row: 1, column: "s", value: "hello world", want: "hello world"},
		{name: "null marker clears", row: 0, column: "n", value: "NA", want: ""},
		{name: "text into int", row: 0, column: "n", value: "abc", wantErr: ErrInvalidValue},
		{name: "float into int", row: 0, column: "n", value: "1.5", wantErr: ErrInvalidValue},
		{name: "unknown column", row: 0, column: "zzz", value: "1", wantErr: ErrUnknownColumn},
		{name: "row out of range", row: 2, column: "n", value: "1", wantErr: ErrInvalidValue},
		{name: "negative row", row: -1, column: "n", value: "1", wantErr: ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := mustParse(t, base)
			got, err := ds.WithCell(tt.row, tt.column, tt.value)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("WithCell() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("WithCell() error = %v", err)
			}

			col, _ := got.ColumnByName(tt.column)
			if cell := col.Cell(tt.row); cell != tt.want {
				t.Errorf("cell = %q, want %q", cell, tt.want)
			}
			orig, _ := ds.ColumnByName(tt.column)
			if orig.Type != col.Type {
				t.Errorf("type changed from %v to %v", orig.Type, col.Type)
			}
			if !ds.Equal(mustParse(t, base)) {
				t.Error("original dataset was modified")
			}
		})
	}
}

func TestWithoutRows(t *testing.T) {
	ds := mustParse(t, "id,v\n0,a\n1,b\n2,c\n3,d\n")

	tests := []struct {
		name    string
		rows    []int
		wantIDs []string
		wantErr bool
	}{
		{name: "single", rows: []int{1}, wantIDs: []string{"0", "2", "3"}},
		{name: "unordered with duplicates", rows: []int{3, 0, 3}, wantIDs: []string{"1", "2"}},
		{name: "none", rows: nil, wantIDs: []string{"0", "1", "2", "3"}},
		{name: "all", rows: []int{0, 1, 2, 3}, wantIDs: []string{}},
		{name: "out of range", rows: []int{4}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ds.WithoutRows(tt.rows)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidValue) {
					t.Fatalf("WithoutRows() error = %v, want ErrInvalidValue", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("WithoutRows() error = %v", err)
			}
			if got.NumCols() != 2 {
				t.Errorf("NumCols() = %d, want 2", got.NumCols())
			}
			ids := make([]string, got.NumRows())
			for i := range ids {
				ids[i] = got.Column(0).Cell(i)
			}
			if !reflect.DeepEqual(ids, tt.wantIDs) {
				t.Errorf("ids = %q, want %q", ids, tt.wantIDs)
			}
		})
	}

	if ds.NumRows() != 4 {
		t.Errorf("original rows = %d, want 4", ds.NumRows())
	}
}
