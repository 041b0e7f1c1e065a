// Package jira provides the issue updater that pushes generated reports
// back into Jira.
package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jira "github.com/andygrunwald/go-jira"

	"github.com/danielolaszy/triage/internal/config"
	"github.com/danielolaszy/triage/internal/logging"
)

// syntheticSuccess is returned when Jira answers 204 or with an empty body.
const syntheticSuccess = "Issue updated successfully. (No content returned from Jira)"

// adfDocument is the minimal Atlassian Document Format wrapper accepted by
// the v3 issue endpoint: a single paragraph with one text node.
type adfDocument struct {
	Type    string    `json:"type"`
	Version int       `json:"version"`
	Content []adfNode `json:"content"`
}

type adfNode struct {
	Type    string    `json:"type"`
	Text    string    `json:"text,omitempty"`
	Content []adfNode `json:"content,omitempty"`
}

// updateFields is the body of an issue update request.
type updateFields struct {
	Fields struct {
		Summary     string      `json:"summary"`
		Description adfDocument `json:"description"`
	} `json:"fields"`
}

// Client handles interactions with the JIRA API.
type Client struct {
	domain     string
	httpClient *http.Client
	configured bool
}

// NewClient creates a new JIRA client. Missing credentials do not fail
// construction; they surface when an update is attempted so the server can
// start in console-only setups.
func NewClient(cfg *config.Config) *Client {
	if err := config.ValidateJiraConfig(cfg); err != nil {
		logging.Warn("jira client not fully configured", "error", err)
		return &Client{}
	}

	// Basic auth: user email and API token, base64-encoded by the transport
	tp := jira.BasicAuthTransport{
		Username: cfg.Jira.UserEmail,
		Password: cfg.Jira.APIToken,
	}

	httpClient := tp.Client()
	httpClient.Timeout = 30 * time.Second

	logging.Debug("jira client configured",
		"domain", cfg.Jira.Domain,
		"user", cfg.Jira.UserEmail,
		"token", logging.MaskSensitive(cfg.Jira.APIToken))

	return &Client{
		domain:     cfg.Jira.Domain,
		httpClient: httpClient,
		configured: true,
	}
}

// UpdateIssue sets the issue's summary to title and its description to a
// single-paragraph rich-text document wrapping description. A non-2xx
// response is a terminal error; no retry is attempted.
func (c *Client) UpdateIssue(ctx context.Context, issueKey, title, description string) (map[string]any, error) {
	if !c.configured {
		return nil, fmt.Errorf("jira client not initialized: JIRA_DOMAIN, JIRA_USER_EMAIL and JIRA_API_TOKEN must be set")
	}

	var body updateFields
	body.Fields.Summary = title
	body.Fields.Description = adfDocument{
		Type:    "doc",
		Version: 1,
		Content: []adfNode{
			{
				Type: "paragraph",
				Content: []adfNode{
					{Type: "text", Text: description},
				},
			},
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode update request: %w", err)
	}

	url := fmt.Sprintf("%s/rest/api/3/issue/%s", c.domain, issueKey)
	logging.Info("updating jira issue", "issue", issueKey, "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build update request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jira update request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read jira response: %w", err)
	}

	logging.Info("jira response", "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("jira api returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	// Jira answers 204 on successful updates; don't try to parse nothing
	if resp.StatusCode == http.StatusNoContent || strings.TrimSpace(string(respBody)) == "" {
		return map[string]any{"message": syntheticSuccess}, nil
	}

	var parsed map[string]any
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode jira response: %w", err)
	}

	return parsed, nil
}
