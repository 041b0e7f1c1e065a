package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient builds a client pointed at the given base URL with a sleep
// recorder instead of real waits. The backoff unit stays at one second so
// the recorded schedule matches the documented one.
func newTestClient(baseURL string) (*Client, *[]time.Duration) {
	sleeps := &[]time.Duration{}
	client := &Client{
		apiURL:      baseURL,
		apiKey:      "test-key",
		model:       "gpt-3.5-turbo",
		maxRetries:  defaultMaxRetries,
		httpClient:  &http.Client{Timeout: 5 * time.Second},
		backoffUnit: time.Second,
		sleep: func(d time.Duration) {
			*sleeps = append(*sleeps, d)
		},
	}
	return client, sleeps
}

// chatResponseBody builds a minimal chat-completion response whose single
// choice carries the given content.
func chatResponseBody(t *testing.T, content string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"id":    "chatcmpl-test",
		"model": "gpt-3.5-turbo",
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
	})
	require.NoError(t, err)
	return body
}

// scriptedServer answers with the given statuses in order, serving the
// success body on any 2xx status.
func scriptedServer(t *testing.T, statuses []int, successContent string) (*httptest.Server, *int) {
	t.Helper()
	requests := new(int)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		status := statuses[len(statuses)-1]
		if *requests < len(statuses) {
			status = statuses[*requests]
		}
		*requests++

		if status >= 200 && status <= 299 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			w.Write(chatResponseBody(t, successContent))
			return
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)
	return server, requests
}

func TestCallWithRetrySuccessFirstAttempt(t *testing.T) {
	server, requests := scriptedServer(t, []int{200}, "hello")
	client, sleeps := newTestClient(server.URL)

	resp, err := client.callWithRetry(context.Background(), ChatRequest{Model: client.model})
	require.NoError(t, err)
	require.Len(t, resp.Choices, 1)
	assert.Equal(t, "hello", resp.Choices[0].Message.Content)
	assert.Equal(t, 1, *requests)
	assert.Empty(t, *sleeps)
}

func TestCallWithRetryRateLimitedThenSuccess(t *testing.T) {
	server, requests := scriptedServer(t, []int{429, 429, 200}, "hello")
	client, sleeps := newTestClient(server.URL)

	resp, err := client.callWithRetry(context.Background(), ChatRequest{Model: client.model})
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Choices[0].Message.Content)
	assert.Equal(t, 3, *requests)

	// Exactly two backoff waits: 1 unit then 2 units
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second}, *sleeps)
}

func TestCallWithRetryExhaustsRetries(t *testing.T) {
	server, requests := scriptedServer(t, []int{429}, "")
	client, sleeps := newTestClient(server.URL)
	client.maxRetries = 3

	_, err := client.callWithRetry(context.Background(), ChatRequest{Model: client.model})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")

	// Exactly three attempts, no fourth, and no wait after the last one
	assert.Equal(t, 3, *requests)
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second}, *sleeps)
}

func TestCallWithRetryTerminalStatus(t *testing.T) {
	server, requests := scriptedServer(t, []int{401}, "")
	client, sleeps := newTestClient(server.URL)

	_, err := client.callWithRetry(context.Background(), ChatRequest{Model: client.model})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")

	// Non-429 errors are terminal: one attempt, no backoff
	assert.Equal(t, 1, *requests)
	assert.Empty(t, *sleeps)
}

func TestCallWithRetryTransportError(t *testing.T) {
	// A server that is already closed produces connection failures
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client, sleeps := newTestClient(server.URL)
	client.maxRetries = 2

	_, err := client.callWithRetry(context.Background(), ChatRequest{Model: client.model})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
	assert.Equal(t, []time.Duration{1 * time.Second}, *sleeps)
}

func TestGenerateReport(t *testing.T) {
	var captured ChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		w.Write(chatResponseBody(t, `{"title": "Login button unresponsive", "description": "### Summary:\nClicking login does nothing"}`))
	}))
	t.Cleanup(server.Close)

	client, _ := newTestClient(server.URL)

	result, err := client.GenerateReport(context.Background(), "login button doesn't work on firefox")
	require.NoError(t, err)

	assert.Equal(t, "Login button unresponsive", result.Title)
	assert.Contains(t, result.Description, "### Summary:")

	// The raw description is embedded verbatim in the prompt
	assert.Equal(t, "gpt-3.5-turbo", captured.Model)
	assert.Equal(t, 0.3, captured.Temperature)
	require.Len(t, captured.Messages, 1)
	assert.Equal(t, "user", captured.Messages[0].Role)
	assert.Contains(t, captured.Messages[0].Content, "login button doesn't work on firefox")
	assert.Contains(t, captured.Messages[0].Content, "Respond in JSON format")
}

func TestGenerateReportFencedOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(chatResponseBody(t, "```json\n{\"title\": \"T\", \"description\": \"D\"}\n```"))
	}))
	t.Cleanup(server.Close)

	client, _ := newTestClient(server.URL)

	result, err := client.GenerateReport(context.Background(), "some bug")
	require.NoError(t, err)
	assert.Equal(t, "T", result.Title)
	assert.Equal(t, "D", result.Description)
}

func TestGenerateReportMissingKeys(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(chatResponseBody(t, `{}`))
	}))
	t.Cleanup(server.Close)

	client, _ := newTestClient(server.URL)

	result, err := client.GenerateReport(context.Background(), "some bug")
	require.NoError(t, err)
	assert.Equal(t, "No Title Generated", result.Title)
	assert.Equal(t, "No Description Provided", result.Description)
}

func TestGenerateReportInvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(chatResponseBody(t, "Sure! Here's an improved report:"))
	}))
	t.Cleanup(server.Close)

	client, _ := newTestClient(server.URL)

	_, err := client.GenerateReport(context.Background(), "some bug")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse model output")
}

func TestGenerateReportNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": "chatcmpl-test", "choices": []}`))
	}))
	t.Cleanup(server.Close)

	client, _ := newTestClient(server.URL)

	_, err := client.GenerateReport(context.Background(), "some bug")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestGenerateReportMissingAPIKey(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	t.Cleanup(server.Close)

	client, _ := newTestClient(server.URL)
	client.apiKey = ""

	_, err := client.GenerateReport(context.Background(), "some bug")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
	assert.Zero(t, requests)
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Plain JSON",
			input:    `{"title": "T"}`,
			expected: `{"title": "T"}`,
		},
		{
			name:     "Fenced with language tag",
			input:    "```json\n{\"title\": \"T\"}\n```",
			expected: `{"title": "T"}`,
		},
		{
			name:     "Fenced without language tag",
			input:    "```\n{\"title\": \"T\"}\n```",
			expected: `{"title": "T"}`,
		},
		{
			name:     "Surrounding whitespace",
			input:    "  \n{\"title\": \"T\"}\n  ",
			expected: `{"title": "T"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, stripCodeFence(tt.input))
		})
	}
}
