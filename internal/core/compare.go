package core

// Side is the shape of one dataset in a comparison.
type Side struct {
	Name    string `json:"name"`
	Rows    int    `json:"rows"`
	Columns int    `json:"columns"`
	Missing int    `json:"missing"`
}

// Comparison lines up two datasets. CommonColumns keeps A's column order.
type Comparison struct {
	A             Side     `json:"a"`
	B             Side     `json:"b"`
	CommonColumns []string `json:"common_columns"`
	OnlyA         []string `json:"only_a"`
	OnlyB         []string `json:"only_b"`
}

func side(e Entry) Side {
	return Side{
		Name:    e.Name,
		Rows:    e.Data.NumRows(),
		Columns: e.Data.NumCols(),
		Missing: e.Profile.TotalMissing(),
	}
}

// Compare is a pure read over two entries.
func Compare(a, b Entry) Comparison {
	inB := make(map[string]bool, b.Data.NumCols())
	for _, name := range b.Data.ColumnNames() {
		inB[name] = true
	}
	inA := make(map[string]bool, a.Data.NumCols())

	c := Comparison{
		A:             side(a),
		B:             side(b),
		CommonColumns: []string{},
		OnlyA:         []string{},
		OnlyB:         []string{},
	}
	for _, name := range a.Data.ColumnNames() {
		inA[name] = true
		if inB[name] {
			c.CommonColumns = append(c.CommonColumns, name)
		} else {
			c.OnlyA = append(c.OnlyA, name)
		}
	}
	for _, name := range b.Data.ColumnNames() {
		if !inA[name] {
			c.OnlyB = append(c.OnlyB, name)
		}
	}
	return c
}
