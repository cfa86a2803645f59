// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "gh-issue-stats",
	Short: "A CLI tool to extract issue lifecycle statistics from GitHub repositories.",
	Long: `gh-issue-stats samples active GitHub repositories and extracts, for each
closed issue and pull request, the timeline events that mark the start and
end of work. The per-issue records are stored as JSON files and can be
exported as CSV or Parquet for cycle-time analysis.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Add a persistent flag for verbose output, available to all commands.
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")

	// Environment binding: GHSTATS_TOKEN works alongside GITHUB_TOKEN.
	viper.SetEnvPrefix("GHSTATS")
	viper.AutomaticEnv()
}

// newLogger builds the logger shared by all commands. Non-verbose runs log
// at Info to stderr, verbose runs at Debug.
func newLogger(cmd *cobra.Command) *logrus.Logger {
	verbose, _ := cmd.InheritedFlags().GetBool("verbose")
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

// apiToken resolves the GitHub token from GITHUB_TOKEN or GHSTATS_TOKEN.
func apiToken() string {
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		return token
	}
	return viper.GetString("token")
}
