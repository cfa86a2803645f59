// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aer205/gh-issue-stats/internal/export"
	"github.com/aer205/gh-issue-stats/internal/storage"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Flattens saved issue records into CSV or Parquet",
	Long: `Loads a previously extracted result tree and writes one row per issue
record. Absent fields become empty CSV cells or Parquet nulls, so the output
round-trips cleanly into dataframe tooling.`,
	Run: func(cmd *cobra.Command, args []string) {
		logger := newLogger(cmd)

		input, _ := cmd.Flags().GetString("input")
		output, _ := cmd.Flags().GetString("output")
		format, _ := cmd.Flags().GetString("format")

		store := storage.NewStore(input, logger)
		stats, err := store.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load results from %s: %v\n", input, err)
			os.Exit(1)
		}
		rows := export.Flatten(stats)

		switch format {
		case "csv":
			file, err := os.Create(output)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to create %s: %v\n", output, err)
				os.Exit(1)
			}
			defer file.Close()
			if err := export.WriteCSV(file, rows); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to write CSV: %v\n", err)
				os.Exit(1)
			}
		case "parquet":
			if err := export.WriteParquet(rows, output); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to write Parquet: %v\n", err)
				os.Exit(1)
			}
		default:
			fmt.Fprintf(os.Stderr, "Unknown format %q (expected csv or parquet)\n", format)
			os.Exit(1)
		}
		logger.Infof("Exported %d rows to %s", len(rows), output)
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringP("input", "i", "out", "Directory holding the per-issue JSON files")
	exportCmd.Flags().StringP("output", "o", "stats.csv", "Output file path")
	exportCmd.Flags().StringP("format", "f", "csv", "Output format: csv or parquet")
}
