package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvprof/internal/core"
	"github.com/JonMunkholm/csvprof/internal/dataset"
	"github.com/JonMunkholm/csvprof/internal/profile"
)

func baseSansExt(fname string) string {
	base := filepath.Base(fname)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// loadEntry parses fname into a profiled entry named after the file.
func loadEntry(fname string) (core.Entry, error) {
	f, err := os.Open(fname)
	if err != nil {
		return core.Entry{}, errors.Wrap(err, "open")
	}
	defer f.Close()

	ds, _, err := dataset.Parse(f)
	if err != nil {
		return core.Entry{}, errors.Wrapf(err, "parse %s", fname)
	}
	return core.Entry{Name: filepath.Base(fname), Data: ds, Profile: profile.New(ds)}, nil
}

func outputFormat(cmd *cobra.Command) (string, error) {
	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "pretty", "json":
		return format, nil
	default:
		return "", errors.Errorf("unknown format %q (want pretty or json)", format)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(v), "encode json")
}

type profileReport struct {
	File        string               `json:"file"`
	Info        profile.Info         `json:"info"`
	Numeric     []string             `json:"numeric_columns"`
	Categorical []string             `json:"categorical_columns"`
	Stats       profile.StatsTable   `json:"stats"`
	Missing     []profile.MissingRow `json:"missing"`
	Head        [][]string           `json:"head"`
}

func profileFile(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	head, _ := cmd.Flags().GetInt("head")

	e, err := loadEntry(args[0])
	if err != nil {
		return err
	}
	p := e.Profile
	report := profileReport{
		File:        e.Name,
		Info:        p.Info(),
		Numeric:     p.NumericColumns(),
		Categorical: p.CategoricalColumns(),
		Stats:       p.SummaryStats(),
		Missing:     p.MissingValues(),
		Head:        p.Head(head),
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		return writeJSON(out, report)
	}
	return printProfile(out, p, report)
}

func printProfile(out io.Writer, p *profile.Profiler, r profileReport) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "%s\n\n", r.File)
	fmt.Fprintln(tw, p.BasicInfo())
	fmt.Fprintf(tw, "Numeric columns: %s\n", listOrNone(r.Numeric))
	fmt.Fprintf(tw, "Categorical columns: %s\n", listOrNone(r.Categorical))

	if len(r.Head) > 0 {
		fmt.Fprintln(tw, "\nFirst rows:")
		fmt.Fprintln(tw, strings.Join(p.Dataset().ColumnNames(), "\t"))
		for _, row := range r.Head {
			fmt.Fprintln(tw, strings.Join(row, "\t"))
		}
	}

	fmt.Fprintln(tw, "\nSummary statistics:")
	if r.Stats.Empty() {
		fmt.Fprintln(tw, "  no numeric columns")
	} else {
		fmt.Fprintf(tw, "\t%s\n", strings.Join(r.Stats.Columns, "\t"))
		for _, row := range r.Stats.Rows {
			cells := make([]string, len(row.Values))
			for i, v := range row.Values {
				cells[i] = v.String()
			}
			fmt.Fprintf(tw, "%s\t%s\n", row.Stat, strings.Join(cells, "\t"))
		}
	}

	fmt.Fprintln(tw, "\nMissing values:")
	fmt.Fprintln(tw, "column\tcount\tpercent")
	for _, m := range r.Missing {
		fmt.Fprintf(tw, "%s\t%d\t%.2f%%\n", m.Column, m.Count, m.Percent)
	}
	return errors.Wrap(tw.Flush(), "write output")
}

func compareFiles(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	if filepath.Clean(args[0]) == filepath.Clean(args[1]) {
		return errors.New("compare needs two different files")
	}

	a, err := loadEntry(args[0])
	if err != nil {
		return err
	}
	b, err := loadEntry(args[1])
	if err != nil {
		return err
	}
	c := core.Compare(a, b)

	out := cmd.OutOrStdout()
	if format == "json" {
		return writeJSON(out, c)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "\t%s\t%s\n", c.A.Name, c.B.Name)
	fmt.Fprintf(tw, "rows\t%d\t%d\n", c.A.Rows, c.B.Rows)
	fmt.Fprintf(tw, "columns\t%d\t%d\n", c.A.Columns, c.B.Columns)
	fmt.Fprintf(tw, "missing cells\t%d\t%d\n", c.A.Missing, c.B.Missing)
	fmt.Fprintf(tw, "\nIn both: %s\n", listOrNone(c.CommonColumns))
	fmt.Fprintf(tw, "Only in %s: %s\n", c.A.Name, listOrNone(c.OnlyA))
	fmt.Fprintf(tw, "Only in %s: %s\n", c.B.Name, listOrNone(c.OnlyB))
	return errors.Wrap(tw.Flush(), "write output")
}

func convertFile(cmd *cobra.Command, args []string) error {
	to, _ := cmd.Flags().GetString("to")
	outPath, _ := cmd.Flags().GetString("out")

	var (
		ext   string
		write func(*dataset.Dataset, io.Writer) error
	)
	switch to {
	case "parquet":
		ext, write = ".parquet", (*dataset.Dataset).WriteParquet
	case "csv":
		ext, write = ".csv", (*dataset.Dataset).WriteCSV
	default:
		return errors.Errorf("unknown target format %q (want parquet or csv)", to)
	}
	if outPath == "" {
		outPath = filepath.Join(filepath.Dir(args[0]), baseSansExt(args[0])+ext)
	}
	if filepath.Clean(outPath) == filepath.Clean(args[0]) {
		return errors.New("output would overwrite the input; pass --out")
	}

	e, err := loadEntry(args[0])
	if err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return errors.Wrap(err, "create output")
	}
	if err := write(e.Data, f); err != nil {
		f.Close()
		os.Remove(outPath)
		return errors.Wrapf(err, "convert %s", args[0])
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "close output")
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d rows, %d columns)\n", outPath, e.Data.NumRows(), e.Data.NumCols())
	return nil
}

func listOrNone(names []string) string {
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}
