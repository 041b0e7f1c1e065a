// Package github provides functionality for interacting with the GitHub API.
package github

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v41/github"
	"golang.org/x/oauth2"

	"github.com/danielolaszy/triage/internal/config"
	"github.com/danielolaszy/triage/internal/logging"
	"github.com/danielolaszy/triage/pkg/models"
)

// Client encapsulates the GitHub API client.
type Client struct {
	client *github.Client
}

// NewClient creates a new GitHub API client from configuration. It
// initializes the client with the appropriate base URL and authenticates
// with the GitHub API.
func NewClient(cfg *config.Config) (*Client, error) {
	if err := config.ValidateGitHubConfig(cfg); err != nil {
		return nil, err
	}

	// Get domain from config, default to github.com
	domain := cfg.GitHub.Domain
	if domain == "" {
		domain = "github.com"
	}

	// Construct API URL based on domain
	var apiURL string
	if domain == "github.com" {
		apiURL = "https://api.github.com/"
	} else {
		apiURL = fmt.Sprintf("https://%s/api/v3/", domain)
	}

	logging.Debug("github configuration",
		"domain", domain,
		"api_url", apiURL,
		"token", logging.MaskSensitive(cfg.GitHub.Token))

	// Create the oauth2 client
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: cfg.GitHub.Token},
	)
	tc := oauth2.NewClient(context.Background(), ts)

	// Create GitHub client with custom base URL
	client := github.NewClient(tc)

	// If not using default GitHub.com, set custom API endpoint
	if domain != "github.com" {
		parsedURL, err := url.Parse(apiURL)
		if err != nil {
			return nil, fmt.Errorf("invalid github api url: %w", err)
		}

		client.BaseURL = parsedURL
		client.UploadURL = parsedURL
	}

	return &Client{client: client}, nil
}

// GetIssue retrieves a single issue from a GitHub repository and converts
// it to our internal model. The repository should be in the format
// "owner/repo".
func (c *Client) GetIssue(repository string, number int) (models.GitHubIssue, error) {
	owner, repo, err := parseRepository(repository)
	if err != nil {
		return models.GitHubIssue{}, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	issue, resp, err := c.client.Issues.Get(ctx, owner, repo, number)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		return models.GitHubIssue{}, fmt.Errorf("failed to fetch issue #%d from %s: %v (status: %d)", number, repository, err, status)
	}

	if issue.IsPullRequest() {
		return models.GitHubIssue{}, fmt.Errorf("#%d in %s is a pull request, not an issue", number, repository)
	}

	return convertIssue(issue), nil
}

// parseRepository splits a "owner/repo" string into its two parts.
func parseRepository(repository string) (owner, repo string, err error) {
	parts := strings.Split(repository, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository format: %s, expected format: owner/repo", repository)
	}
	return parts[0], parts[1], nil
}

// convertIssue maps a GitHub API issue onto the shared model.
func convertIssue(issue *github.Issue) models.GitHubIssue {
	result := models.GitHubIssue{
		Number:      issue.GetNumber(),
		Title:       issue.GetTitle(),
		Description: issue.GetBody(),
		State:       issue.GetState(),
		CreatedAt:   issue.GetCreatedAt(),
		UpdatedAt:   issue.GetUpdatedAt(),
	}

	for _, label := range issue.Labels {
		result.Labels = append(result.Labels, label.GetName())
	}

	return result
}
