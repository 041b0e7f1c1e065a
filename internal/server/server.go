// Package server exposes the webhook endpoint that drives the
// generate-and-update pipeline.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/danielolaszy/triage/internal/logging"
	"github.com/danielolaszy/triage/pkg/models"
)

// ReportGenerator rewrites a raw bug description into a structured report.
type ReportGenerator interface {
	GenerateReport(ctx context.Context, description string) (models.GenerationResult, error)
}

// IssueUpdater pushes a generated report into the issue tracker.
type IssueUpdater interface {
	UpdateIssue(ctx context.Context, issueKey, title, description string) (map[string]any, error)
}

// WebhookHandler normalizes inbound payloads and routes them to either
// console output or a Jira update.
type WebhookHandler struct {
	generator ReportGenerator
	updater   IssueUpdater
}

// NewWebhookHandler creates a handler from its two collaborators.
func NewWebhookHandler(generator ReportGenerator, updater IssueUpdater) *WebhookHandler {
	return &WebhookHandler{
		generator: generator,
		updater:   updater,
	}
}

// Setup builds the gin engine with the webhook routes registered.
func Setup(h *WebhookHandler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/", h.Handle)
	r.POST("/jira-webhook", h.Handle)

	return r
}

// Handle processes one webhook call. Payloads without a usable description
// are skipped; payloads carrying a Jira issue key always attempt a tracker
// update after generation, everything else goes to console-only output.
func (h *WebhookHandler) Handle(c *gin.Context) {
	var payload models.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		logging.Error("no usable JSON payload received", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "no JSON payload received",
		})
		return
	}

	issueKey, description := extractTarget(payload)
	logging.Info("received webhook payload",
		"issue_key", issueKey,
		"description_length", len(description))

	if description == "" {
		logging.Warn("empty description, skipping generation")
		c.JSON(http.StatusOK, gin.H{
			"status":  "skipped",
			"message": "empty description",
		})
		return
	}

	ctx := c.Request.Context()

	result, err := h.generator.GenerateReport(ctx, description)
	if err != nil {
		logging.Error("report generation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}

	// Console-only mode: no issue to update, emit the report for the operator
	if issueKey == "" {
		logging.Info("no issue key, printing generated report to console")
		fmt.Println("\n===== Generated Output (API Console Mode) =====")
		fmt.Println("Title:", result.Title)
		fmt.Println("Description:\n", result.Description)

		c.JSON(http.StatusOK, gin.H{
			"status":      "success",
			"title":       result.Title,
			"description": result.Description,
		})
		return
	}

	jiraResp, err := h.updater.UpdateIssue(ctx, issueKey, result.Title, result.Description)
	if err != nil {
		logging.Error("jira update failed", "issue", issueKey, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        "success",
		"jira_response": jiraResp,
	})
}

// extractTarget resolves the issue key and description from the two
// recognized payload shapes. A nested issue object with a key wins over a
// top-level description; its description defaults to the empty string.
func extractTarget(payload models.WebhookPayload) (issueKey, description string) {
	if payload.Issue != nil && payload.Issue.Key != "" {
		return payload.Issue.Key, payload.Issue.Fields.Description
	}
	return "", payload.Description
}
