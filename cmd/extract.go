// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aer205/gh-issue-stats/internal/gateway"
	"github.com/aer205/gh-issue-stats/internal/storage"
	"github.com/aer205/gh-issue-stats/internal/usecase"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Samples repositories and extracts per-issue lifecycle records",
	Long: `Reads a list of repository URLs, optionally narrows it down to the most
active ones, and extracts one lifecycle record per closed issue inside the
configured window. Records are written as one JSON file per issue under
<output>/<owner>/<repo>/<number>.json.

Partial failures (single issues or repositories) are logged and skipped;
the command fails only when no repository could be extracted at all.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		logger := newLogger(cmd)

		token := apiToken()
		if token == "" {
			fmt.Fprintln(os.Stderr, "Error: GITHUB_TOKEN environment variable is not set.")
			os.Exit(1)
		}

		input, _ := cmd.Flags().GetString("input")
		output, _ := cmd.Flags().GetString("output")
		createdAge, _ := cmd.Flags().GetInt("created-age")
		closedAge, _ := cmd.Flags().GetInt("closed-age")
		sampleSize, _ := cmd.Flags().GetInt("sample-size")
		sampleDays, _ := cmd.Flags().GetInt("sample-days")
		percentileCap, _ := cmd.Flags().GetFloat64("percentile-cap")
		workers, _ := cmd.Flags().GetInt("workers")

		urls, err := readRepoURLs(input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read repository list: %v\n", err)
			os.Exit(1)
		}

		// Inject dependencies and run the main business logic.
		githubGateway, err := gateway.NewGitHubGateway(token, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create GitHub gateway: %v\n", err)
			os.Exit(1)
		}

		// Narrow the candidate list to the most active repositories unless
		// sampling is disabled with --sample-size 0.
		if sampleSize > 0 {
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
			urls = make([]string, 0, len(sample))
			for _, repo := range sample {
				urls = append(urls, repo.URL)
			}
		}

		window := usecase.Window{
			MaxCreatedAge: time.Duration(createdAge) * 24 * time.Hour,
			MaxClosedAge:  time.Duration(closedAge) * 24 * time.Hour,
		}
		extractor := usecase.NewExtractor(githubGateway, usecase.NewClassifier(), window, logger, workers)

		results, report, err := extractor.Run(ctx, urls)
		if err != nil && !errors.Is(err, usecase.ErrTotalFailure) {
			fmt.Fprintf(os.Stderr, "Extraction failed: %v\n", err)
			os.Exit(1)
		}
		if errors.Is(err, usecase.ErrTotalFailure) {
			fmt.Fprintf(os.Stderr, "Extraction failed for every repository (%d)\n", report.FailedRepos)
			os.Exit(1)
		}

		store := storage.NewStore(output, logger)
		if err := store.Save(results); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to save results: %v\n", err)
			os.Exit(1)
		}

		if report.FailedRepos > 0 || report.FailedIssues > 0 {
			logger.Warnf("Partial success: %d repositories and %d issues failed", report.FailedRepos, report.FailedIssues)
		}
		logger.Infof("Wrote %d issues from %d repositories to %s", report.Issues, report.Repos, output)
	},
}

// readRepoURLs reads a JSON array of repository URLs from a file.
func readRepoURLs(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var urls []string
	if err := json.Unmarshal(data, &urls); err != nil {
		return nil, fmt.Errorf("failed to parse %s as a JSON array of URLs: %w", path, err)
	}
	return urls, nil
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringP("input", "i", "in.json", "JSON file with the candidate repository URLs")
	extractCmd.Flags().StringP("output", "o", "out", "Directory for the per-issue JSON files")
	extractCmd.Flags().Int("created-age", 548, "Maximum issue age since creation, in days")
	extractCmd.Flags().Int("closed-age", 365, "Maximum issue age since closure, in days")
	extractCmd.Flags().Int("sample-size", 40, "Number of repositories to sample (0 disables sampling)")
	extractCmd.Flags().Int("sample-days", 90, "Trailing commit window for the activity sample, in days")
	extractCmd.Flags().Float64("percentile-cap", 0, "Discard repositories at or above this activity percentile (0 disables)")
	extractCmd.Flags().Int("workers", 8, "Maximum concurrent API requests per stage")
}
