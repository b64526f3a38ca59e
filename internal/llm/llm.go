package llm

import (
	"context"
	"fmt"
)

// creates the classifier for the configured provider. ProviderNone (or an
// empty provider) yields a nil classifier: callers then rely on the local
// heuristic alone.
func NewClassifier(ctx context.Context, config *Config) (Classifier, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	switch config.Provider {
	case "", ProviderNone:
		return nil, nil
	case ProviderAnthropic:
		return NewAnthropicClassifier(AnthropicConfig{
			APIKey:      config.AnthropicKey,
			Model:       config.AnthropicModel,
			MaxTokens:   config.MaxTokens,
			Temperature: config.Temperature,
		}), nil
	case ProviderArk:
		return NewArkClassifier(ctx, ArkConfig{
			APIKey:      config.ArkAPIKey,
			Model:       config.ArkModel,
			BaseURL:     config.ArkBaseURL,
			MaxTokens:   config.MaxTokens,
			Temperature: config.Temperature,
		})
	default:
		return nil, fmt.Errorf("unsupported classifier provider: %s", config.Provider)
	}
}
