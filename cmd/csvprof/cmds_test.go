package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/csvprof/internal/dataset"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestProfile_Pretty(t *testing.T) {
	path := writeFile(t, t.TempDir(), "t.csv", "x,y\n1,a\n,b\n3,c\n")

	out, err := run(t, "profile", path)
	if err != nil {
		t.Fatalf("profile error = %v", err)
	}
	for _, want := range []string{"Rows: 3", "Numeric columns: x", "Categorical columns: y", "mean", "33.33%"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestProfile_JSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "t.csv", "x,y\n1,a\n,b\n3,c\n")

	out, err := run(t, "profile", path, "--format", "json", "--head", "1")
	if err != nil {
		t.Fatalf("profile error = %v", err)
	}
	var report struct {
		File    string     `json:"file"`
		Numeric []string   `json:"numeric_columns"`
		Head    [][]string `json:"head"`
		Missing []struct {
			Count int `json:"count"`
		} `json:"missing"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if report.File != "t.csv" || len(report.Numeric) != 1 || len(report.Head) != 1 {
		t.Errorf("report = %+v", report)
	}
	if len(report.Missing) != 2 || report.Missing[0].Count != 1 {
		t.Errorf("missing = %+v", report.Missing)
	}
}

func TestProfile_Errors(t *testing.T) {
	dir := t.TempDir()
	ragged := writeFile(t, dir, "bad.csv", "a,b\n1,2,3\n")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing file", []string{"profile", filepath.Join(dir, "nope.csv")}, "open"},
		{"ragged", []string{"profile", ragged}, "parse"},
		{"bad format", []string{"profile", ragged, "--format", "xml"}, "unknown format"},
		{"no args", []string{"profile"}, "accepts 1 arg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want one containing %q", err, tt.want)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.csv", "id,name\n1,x\n2,y\n")
	b := writeFile(t, dir, "b.csv", "id,score\n1,0.5\n")

	out, err := run(t, "compare", a, b, "--format", "json")
	if err != nil {
		t.Fatalf("compare error = %v", err)
	}
	var c struct {
		Common []string `json:"common_columns"`
		OnlyA  []string `json:"only_a"`
		OnlyB  []string `json:"only_b"`
	}
	if err := json.Unmarshal([]byte(out), &c); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(c.Common) != 1 || c.Common[0] != "id" || c.OnlyA[0] != "name" || c.OnlyB[0] != "score" {
		t.Errorf("comparison = %+v", c)
	}

	out, err = run(t, "compare", a, b)
	if err != nil || !strings.Contains(out, "Only in a.csv: name") {
		t.Errorf("pretty compare = %q, %v", out, err)
	}

	if _, err := run(t, "compare", a, a); err == nil {
		t.Error("comparing a file with itself should fail")
	}
}

func TestConvert(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "data.csv", "n,label\n1,a\n2,\n")

	out, err := run(t, "convert", src)
	if err != nil {
		t.Fatalf("convert error = %v", err)
	}
	if !strings.Contains(out, "2 rows, 2 columns") {
		t.Errorf("output = %q", out)
	}
	pq, err := os.ReadFile(filepath.Join(dir, "data.parquet"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(pq, []byte("PAR1")) {
		t.Error("parquet output missing magic bytes")
	}

	dst := filepath.Join(dir, "copy.csv")
	if _, err := run(t, "convert", src, "--to", "csv", "--out", dst); err != nil {
		t.Fatalf("convert to csv error = %v", err)
	}
	b, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	ds, err := dataset.ParseBytes(b)
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}
	if ds.NumRows() != 2 || ds.TotalMissing() != 1 {
		t.Errorf("round trip rows=%d missing=%d", ds.NumRows(), ds.TotalMissing())
	}

	if _, err := run(t, "convert", src, "--to", "csv"); err == nil {
		t.Error("converting over the input should fail")
	}
	if _, err := run(t, "convert", src, "--to", "xlsx"); err == nil {
		t.Error("unknown target should fail")
	}
}
