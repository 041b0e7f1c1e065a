// Package models defines data structures shared across the application.
package models

import (
	"time"
)

// WebhookPayload is the inbound body accepted by the webhook endpoint.
// Two shapes are recognized: a Jira webhook payload carrying a nested
// issue object, or a direct invocation carrying only a description.
type WebhookPayload struct {
	// Issue is present when the payload originated from a Jira webhook
	Issue *WebhookIssue `json:"issue,omitempty"`

	// Description is the top-level description of a direct invocation
	Description string `json:"description,omitempty"`
}

// WebhookIssue is the nested issue object of a Jira webhook payload.
type WebhookIssue struct {
	// Key is the Jira issue identifier (e.g., "ABC-123")
	Key string `json:"key"`

	// Fields holds the issue fields we care about
	Fields WebhookIssueFields `json:"fields"`
}

// WebhookIssueFields holds the subset of Jira issue fields read from
// webhook payloads.
type WebhookIssueFields struct {
	// Description is the raw, user-written bug report
	Description string `json:"description"`
}

// GenerationResult is the structured report produced by the model.
// The model is instructed to respond with a JSON object containing
// exactly these two keys.
type GenerationResult struct {
	// Title is the improved issue title
	Title string `json:"title"`

	// Description is the rewritten report, following the
	// Summary/Steps/Expected/Actual markdown template
	Description string `json:"description"`
}

// GitHubIssue represents a GitHub issue with its essential fields
type GitHubIssue struct {
	// Number is the issue number in GitHub (e.g., 42)
	Number int

	// Title is the issue's title or summary
	Title string

	// Description is the full body text of the issue
	Description string

	// State is the current state of the issue
	State string

	// CreatedAt is the timestamp when the issue was created
	CreatedAt time.Time

	// UpdatedAt is the timestamp when the issue was last updated
	UpdatedAt time.Time

	// Labels is a slice of label names attached to the issue
	Labels []string
}
