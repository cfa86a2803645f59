// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aer205/gh-issue-stats/internal/export"
	"github.com/aer205/gh-issue-stats/internal/gateway"
	"github.com/aer205/gh-issue-stats/internal/usecase"
)

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Ranks candidate repositories by recent commit activity",
	Long: `Counts the commits of each candidate repository over the trailing window
and prints the resulting sample as a table, without extracting any issues.
Useful for inspecting the working set before a long extraction run.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		logger := newLogger(cmd)

		token := apiToken()
		if token == "" {
			fmt.Fprintln(os.Stderr, "Error: GITHUB_TOKEN environment variable is not set.")
			os.Exit(1)
		}

		input, _ := cmd.Flags().GetString("input")
		sampleSize, _ := cmd.Flags().GetInt("sample-size")
		sampleDays, _ := cmd.Flags().GetInt("sample-days")
		percentileCap, _ := cmd.Flags().GetFloat64("percentile-cap")
		workers, _ := cmd.Flags().GetInt("workers")

		urls, err := readRepoURLs(input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read repository list: %v\n", err)
			os.Exit(1)
		}

		githubGateway, err := gateway.NewGitHubGateway(token, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create GitHub gateway: %v\n", err)
			os.Exit(1)
		}

		sampler := usecase.NewSampler(githubGateway, logger)
		sample, err := sampler.ActiveSample(ctx, urls, usecase.SampleConfig{
			Days:          sampleDays,
			Size:          sampleSize,
			PercentileCap: percentileCap,
			Workers:       workers,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to sample repositories: %v\n", err)
			os.Exit(1)
		}

		if err := export.WriteSampleTable(os.Stdout, sample); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render sample table: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(sampleCmd)
	sampleCmd.Flags().StringP("input", "i", "in.json", "JSON file with the candidate repository URLs")
	sampleCmd.Flags().Int("sample-size", 40, "Number of repositories to sample (0 disables truncation)")
	sampleCmd.Flags().Int("sample-days", 90, "Trailing commit window, in days")
	sampleCmd.Flags().Float64("percentile-cap", 90, "Discard repositories at or above this activity percentile (0 disables)")
	sampleCmd.Flags().Int("workers", 8, "Maximum concurrent API requests")
}
