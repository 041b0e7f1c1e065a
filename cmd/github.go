package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielolaszy/triage/internal/config"
	"github.com/danielolaszy/triage/internal/github"
	"github.com/danielolaszy/triage/internal/logging"
	"github.com/danielolaszy/triage/internal/openai"
)

// githubCmd fetches a GitHub issue and rewrites its body into a structured
// report, printed to the console.
var githubCmd = &cobra.Command{
	Use:   "github",
	Short: "Generate a structured report from a GitHub issue",
	Long: `Fetch a GitHub issue and rewrite its body into a structured issue report.

The generated title and description are printed to standard output; no
tracker update is performed.

Example:
  triage github -r owner/repo -i 42`,
	RunE: func(cmd *cobra.Command, args []string) error {
		repository, err := cmd.Flags().GetString("repository")
		if err != nil {
			return err
		}

		number, err := cmd.Flags().GetInt("issue")
		if err != nil {
			return err
		}

		if repository == "" {
			return fmt.Errorf("repository flag is required")
		}
		if number <= 0 {
			return fmt.Errorf("issue flag is required")
		}

		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		githubClient, err := github.NewClient(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize github client: %w", err)
		}

		issue, err := githubClient.GetIssue(repository, number)
		if err != nil {
			return err
		}

		if issue.Description == "" {
			return fmt.Errorf("issue #%d in %s has an empty body, nothing to rewrite", number, repository)
		}

		logging.Info("rewriting github issue",
			"repository", repository,
			"issue", number,
			"title", issue.Title)

		result, err := openai.NewClient(cfg).GenerateReport(context.Background(), issue.Description)
		if err != nil {
			return err
		}

		printReport("GitHub Issue Mode", result)
		return nil
	},
}

func init() {
	githubCmd.Flags().StringP("repository", "r", "", "GitHub repository name (e.g., 'username/repo')")
	githubCmd.Flags().IntP("issue", "i", 0, "Issue number to rewrite")
}
