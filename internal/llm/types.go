package llm

import (
	"context"
	"errors"

	"codeberg.org/moodcanvas/server/internal/mood"
)

// returned, wrapped, for every failure to obtain a usable verdict: transport
// errors, non-200 responses, malformed output, unknown kinds and timeouts
var ErrClassificationUnavailable = errors.New("mood classification unavailable")

// classifies chat text into a mood kind and intensity
type Classifier interface {
	Classify(ctx context.Context, text string) (*mood.Classification, error)
}

// represents different LLM providers
type Provider string

const (
	ProviderNone      Provider = "none"
	ProviderAnthropic Provider = "anthropic"
	ProviderArk       Provider = "ark"
)

// holds configuration for classifier initialization
type Config struct {
	Provider Provider

	AnthropicKey   string
	AnthropicModel string // e.g., "claude-3-haiku-20240307"

	ArkAPIKey  string
	ArkModel   string
	ArkBaseURL string

	// optional parameters
	MaxTokens   int
	Temperature float32
}

// shape the model is asked to answer with
type classifierPayload struct {
	Mood      string  `json:"mood"`
	Intensity float64 `json:"intensity"`
}
