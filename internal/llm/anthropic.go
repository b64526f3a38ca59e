package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"codeberg.org/moodcanvas/server/internal/mood"
)

const (
	anthropicMessagesURL  = "https://api.anthropic.com/v1/messages"
	anthropicVersion      = "2023-06-01"
	defaultAnthropicModel = "claude-3-haiku-20240307"
	defaultMaxTokens      = 100
	defaultTemperature    = 0.2
)

// shared HTTP client for Anthropic API calls
var anthropicHTTPClient = &http.Client{
	Timeout: 30 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	},
}

// rate limiter for Anthropic API calls (50 requests/second with burst capacity of 10)
var anthropicRateLimiter = rate.NewLimiter(50, 10)

type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	System      string    `json:"system,omitempty"`
	Messages    []message `json:"messages"`
	Temperature float32   `json:"temperature"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	ID      string    `json:"id"`
	Type    string    `json:"type"`
	Content []content `json:"content"`
	Model   string    `json:"model"`
}

type content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type AnthropicConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32

	// overrides the Messages API endpoint
	BaseURL string
}

type AnthropicClassifier struct {
	config     AnthropicConfig
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewAnthropicClassifier(config AnthropicConfig) *AnthropicClassifier {
	if config.Model == "" {
		config.Model = defaultAnthropicModel
	}

	if config.MaxTokens == 0 {
		config.MaxTokens = defaultMaxTokens
	}

	if config.Temperature == 0 {
		config.Temperature = defaultTemperature
	}

	if config.BaseURL == "" {
		config.BaseURL = anthropicMessagesURL
	}

	return &AnthropicClassifier{
		config:     config,
		httpClient: anthropicHTTPClient,
		limiter:    anthropicRateLimiter,
	}
}

func (c *AnthropicClassifier) Model() string {
	return c.config.Model
}

func (c *AnthropicClassifier) Classify(ctx context.Context, text string) (*mood.Classification, error) {
	reqBody := messagesRequest{
		Model:       c.config.Model,
		MaxTokens:   c.config.MaxTokens,
		System:      classifierSystemPrompt,
		Temperature: c.config.Temperature,
		Messages: []message{
			{Role: "user", Content: strings.Replace(classifierUserPrompt, "{text}", text, 1)},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, unavailable("failed to marshal request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, unavailable("failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.config.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	// rate limiting
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, unavailable("rate limiter error: %v", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, unavailable("failed to send request: %v", err)
	}

	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096)) //nolint:errcheck
		return nil, unavailable("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var apiResp messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, unavailable("failed to decode response: %v", err)
	}

	if len(apiResp.Content) == 0 {
		return nil, unavailable("no content in response")
	}

	return parseClassification(apiResp.Content[0].Text)
}
