// Package openai provides the chat-completion client used to rewrite raw
// bug reports into structured issue reports.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/danielolaszy/triage/internal/config"
	"github.com/danielolaszy/triage/internal/logging"
	"github.com/danielolaszy/triage/pkg/models"
)

const (
	// defaultMaxRetries bounds the attempts made for a single generation call.
	defaultMaxRetries = 5

	// placeholders substituted when the model omits a key from its response.
	defaultTitle       = "No Title Generated"
	defaultDescription = "No Description Provided"
)

// ChatMessage is a single message in a chat-completion conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body sent to the chat-completion endpoint.
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

// ChatResponse is the body returned by the chat-completion endpoint.
type ChatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
}

// Client handles interactions with the chat-completion API.
type Client struct {
	apiURL     string
	apiKey     string
	model      string
	maxRetries int
	httpClient *http.Client

	// backoffUnit scales the exponential backoff schedule (1, 2, 4, 8, 16
	// units). Tests shrink it to avoid real waits.
	backoffUnit time.Duration

	// sleep is swappable in tests to observe the backoff schedule.
	sleep func(time.Duration)
}

// NewClient creates a new chat-completion client from configuration.
// A missing API key is not an error here; it surfaces on the first call.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		apiURL:      cfg.OpenAI.APIURL,
		apiKey:      cfg.OpenAI.APIKey,
		model:       cfg.OpenAI.Model,
		maxRetries:  defaultMaxRetries,
		httpClient:  &http.Client{Timeout: 5 * time.Minute},
		backoffUnit: time.Second,
		sleep:       time.Sleep,
	}
}

// callWithRetry sends the chat-completion request, retrying on rate limits
// (HTTP 429) and transport errors with exponential backoff. Any other
// non-2xx status is terminal. The final attempt is never followed by a wait.
func (c *Client) callWithRetry(ctx context.Context, payload ChatRequest) (*ChatResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	url := c.apiURL + "/chat/completions"

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			logging.Error("openai request failed",
				"error", err,
				"attempt", attempt+1,
				"max_retries", c.maxRetries)
			c.wait(attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			logging.Warn("rate limited by openai",
				"attempt", attempt+1,
				"max_retries", c.maxRetries)
			c.wait(attempt)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read openai response: %w", err)
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, fmt.Errorf("openai api returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
		}

		var chatResp ChatResponse
		if err := json.Unmarshal(respBody, &chatResp); err != nil {
			return nil, fmt.Errorf("failed to decode openai response: %w", err)
		}

		logging.Info("openai api call successful", "attempt", attempt+1)
		return &chatResp, nil
	}

	return nil, fmt.Errorf("openai call failed after %d attempts due to rate limits or transport errors", c.maxRetries)
}

// wait blocks for 2^attempt backoff units unless this was the last attempt.
func (c *Client) wait(attempt int) {
	if attempt+1 >= c.maxRetries {
		return
	}
	d := c.backoffUnit << uint(attempt)
	logging.Warn("retrying openai call", "wait", d)
	c.sleep(d)
}

// GenerateReport asks the model to rewrite a raw bug description into a
// structured title and description. The model output is parsed as JSON;
// a parse failure is a terminal error and is never retried.
func (c *Client) GenerateReport(ctx context.Context, description string) (models.GenerationResult, error) {
	if c.apiKey == "" {
		return models.GenerationResult{}, fmt.Errorf("openai client not configured: OPENAI_API_KEY environment variable not set")
	}

	payload := ChatRequest{
		Model: c.model,
		Messages: []ChatMessage{
			{Role: "user", Content: buildPrompt(description)},
		},
		Temperature: 0.3,
	}

	resp, err := c.callWithRetry(ctx, payload)
	if err != nil {
		return models.GenerationResult{}, err
	}

	if len(resp.Choices) == 0 {
		return models.GenerationResult{}, fmt.Errorf("openai response contained no choices")
	}

	content := resp.Choices[0].Message.Content

	var result models.GenerationResult
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &result); err != nil {
		return models.GenerationResult{}, fmt.Errorf("failed to parse model output as JSON: %w", err)
	}

	if result.Title == "" {
		result.Title = defaultTitle
	}
	if result.Description == "" {
		result.Description = defaultDescription
	}

	logging.Info("generated report", "title", result.Title)
	return result, nil
}

// buildPrompt embeds the raw description into the fixed instruction used
// for every generation call.
func buildPrompt(description string) string {
	return fmt.Sprintf(`You are an experienced Jira assistant helping to write high-quality, detailed issue reports.
Given the following user-written bug report, your task is to:
1. Create a professional Jira issue title.
2. Write a detailed description including:
   - A clear summary of the issue
   - Fully detailed step-by-step reproduction steps
   - Specific form fields (e.g. project name, owner, description) where relevant
   - Expected and actual results

Input:

"""%s"""

Respond in JSON format:
{
  "title": "<Improved title>",
  "description": "### Summary:\n<summary>\n\n### Steps to Reproduce:\n1. <step>\n2. <step>\n...\n\n### Expected Result:\n<expected>\n\n### Actual Result:\n<actual>"
}`, description)
}

// stripCodeFence removes a surrounding markdown code fence from model
// output. Models occasionally wrap the requested JSON in ```json blocks
// even when told not to.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		// Drop the language tag line (e.g., "json")
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
