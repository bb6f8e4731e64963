// Package llm provides an HTTP client for an OpenAI-compatible chat
// completions API, used to summarize agent conversations.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the OpenAI API base. Any OpenAI-compatible
	// endpoint works, including a local proxy.
	DefaultBaseURL = "https://api.openai.com/v1"

	defaultModel     = "gpt-4o-mini"
	defaultMaxTokens = 500
)

// Client talks to a chat completions endpoint.
type Client struct {
	baseURL    string
	model      string
	maxTokens  int
	apiKey     func() string
	httpClient *http.Client
}

// NewClient creates a summarization client. apiKey is called per request so
// a reloaded secret takes effect immediately.
func NewClient(baseURL, model string, apiKey func() string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = defaultModel
	}
	return &Client{
		baseURL:   baseURL,
		model:     model,
		maxTokens: defaultMaxTokens,
		apiKey:    apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

const summaryPrompt = `Please provide a concise summary of the following conversation between a user and a coding agent. Focus on:
- The main task or goal
- Key actions taken by the agent
- Important decisions or outcomes
- Any errors or issues encountered

Conversation:
%s

Summary:`

// Summarize produces a short natural-language summary of the transcript.
func (c *Client) Summarize(ctx context.Context, transcript string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "user", Content: fmt.Sprintf(summaryPrompt, transcript)},
		},
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read completion response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("completion API error %d: %s", resp.StatusCode, string(data))
	}

	var result chatResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("unmarshal completion: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}
	return strings.TrimSpace(result.Choices[0].Message.Content), nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}
