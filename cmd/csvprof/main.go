// Command csvprof profiles, compares and converts CSV files from the shell
// with the same parser and statistics as the web server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "csvprof",
		Short:         "Profile and compare CSV files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("format", "pretty", "output format: pretty or json")
	addCommands(root)
	return root
}

func addCommands(root *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "profile file",
		Short: "Show shape, column types, summary statistics and missing values",
		Args:  cobra.ExactArgs(1),
		RunE:  profileFile}
	cmd.Flags().Int("head", 5, "number of leading rows to print")
	root.AddCommand(cmd)

	cmd = &cobra.Command{
		Use:   "compare file-a file-b",
		Short: "Compare the shape and columns of two files",
		Args:  cobra.ExactArgs(2),
		RunE:  compareFiles}
	root.AddCommand(cmd)

	cmd = &cobra.Command{
		Use:   "convert file",
		Short: "Convert a CSV file to parquet or normalized CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  convertFile}
	cmd.Flags().String("to", "parquet", "target format: parquet or csv")
	cmd.Flags().String("out", "", "output path (default: input name with the new extension)")
	root.AddCommand(cmd)
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
