package research

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Default endpoints for the two supported chat-completion providers.
const (
	PerplexityBaseURL = "https://api.perplexity.ai"
	OpenAIBaseURL     = "https://api.openai.com/v1"

	defaultLLMRateLimit = 1.0 // requests per second
	defaultLLMBurst     = 2
)

// ChatClient talks to an OpenAI-compatible chat completions endpoint.
// Perplexity is preferred for live web data; an OpenAI model serves as
// fallback.
type ChatClient struct {
	name       string
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// ChatOption configures the client.
type ChatOption func(*ChatClient)

// WithChatBaseURL sets a custom base URL.
func WithChatBaseURL(url string) ChatOption {
	return func(c *ChatClient) {
		c.baseURL = url
	}
}

// WithChatHTTPClient sets a custom HTTP client.
func WithChatHTTPClient(client *http.Client) ChatOption {
	return func(c *ChatClient) {
		c.httpClient = client
	}
}

// WithChatRateLimit sets custom rate limiting.
func WithChatRateLimit(rps float64, burst int) ChatOption {
	return func(c *ChatClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewChatClient creates a chat completions client. The name labels the
// provider in logs and results.
func NewChatClient(name, baseURL, apiKey, model string, opts ...ChatOption) *ChatClient {
	c := &ChatClient{
		name:    name,
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(defaultLLMRateLimit), defaultLLMBurst),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Name implements LLMClient.
func (c *ChatClient) Name() string { return c.name }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete implements LLMClient over the chat completions endpoint.
func (c *ChatClient) Complete(ctx context.Context, prompt, systemPrompt string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("%s: no API key configured", c.name)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling %s: %w", c.name, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s returned %d: %s", c.name, resp.StatusCode, truncate(string(respBody), 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("%s error: %s", c.name, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%s returned no choices", c.name)
	}

	return parsed.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
