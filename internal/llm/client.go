// Package llm turns the engine's numeric recommendations into coaching
// text. It talks to any OpenAI-compatible chat endpoint (Ollama, vLLM) and
// degrades to rule-based advice when no model is reachable.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// ClientConfig configures the chat completion client.
type ClientConfig struct {
	// BaseURL is the OpenAI-compatible API root.
	BaseURL string

	// Model is the model name to use.
	Model string

	// Timeout is the timeout for completion requests.
	Timeout time.Duration

	// ProbeTimeout is the timeout for availability checks.
	ProbeTimeout time.Duration

	// Temperature for completions.
	Temperature float64

	// MaxTokens caps the completion length.
	MaxTokens int
}

// DefaultClientConfig returns sensible defaults for a local Ollama.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:      "http://localhost:11434/v1",
		Model:        "llama3",
		Timeout:      30 * time.Second,
		ProbeTimeout: 5 * time.Second,
		Temperature:  0.7,
		MaxTokens:    1024,
	}
}

// Client provides access to an OpenAI-compatible chat API.
type Client struct {
	config      *ClientConfig
	httpClient  *http.Client
	probeClient *http.Client

	available bool
	lastCheck time.Time
	mu        sync.RWMutex
}

// ChatMessage represents a chat message.
type ChatMessage struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
}

// NewClient creates a new chat client.
func NewClient(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultClientConfig()
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	return &Client{
		config:      config,
		httpClient:  &http.Client{Timeout: config.Timeout},
		probeClient: &http.Client{Timeout: config.ProbeTimeout},
	}
}

// IsAvailable probes the models endpoint to see whether the API is up.
// The result is cached until the next probe.
func (c *Client) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/models", nil)
	if err != nil {
		c.setAvailable(false)
		return false
	}

	resp, err := c.probeClient.Do(req)
	if err != nil {
		c.setAvailable(false)
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	ok := resp.StatusCode == http.StatusOK
	c.setAvailable(ok)
	return ok
}

// LastKnownAvailable returns the cached result of the latest probe.
func (c *Client) LastKnownAvailable() (bool, time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.available, c.lastCheck
}

// Chat sends a system+user chat completion request and returns the
// assistant's reply.
func (c *Client) Chat(ctx context.Context, system, user string) (string, error) {
	reqBody := chatRequest{
		Model: c.config.Model,
		Messages: []ChatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: c.config.Temperature,
		MaxTokens:   c.config.MaxTokens,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("chat failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("chat response contained no choices")
	}
	return chatResp.Choices[0].Message.Content, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.config.Model
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

func (c *Client) setAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.available = available
	c.lastCheck = time.Now()
}
