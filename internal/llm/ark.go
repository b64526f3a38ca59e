package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"codeberg.org/moodcanvas/server/internal/mood"
)

const defaultArkBaseURL = "https://ark.cn-beijing.volces.com/api/v3"

type ArkConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float32
}

// classifies through an eino chain: prompt template -> ark chat model
type ArkClassifier struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

func NewArkClassifier(ctx context.Context, config ArkConfig) (*ArkClassifier, error) {
	if config.BaseURL == "" {
		config.BaseURL = defaultArkBaseURL
	}

	maxTokens := config.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	temperature := config.Temperature
	if temperature == 0 {
		temperature = defaultTemperature
	}

	chatModel, err := ark.NewChatModel(ctx, &ark.ChatModelConfig{
		BaseURL:     config.BaseURL,
		APIKey:      config.APIKey,
		Model:       config.Model,
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ark chat model: %w", err)
	}

	return newChainClassifier(ctx, chatModel)
}

func newChainClassifier(ctx context.Context, chatModel model.BaseChatModel) (*ArkClassifier, error) {
	template := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(classifierSystemPrompt),
		schema.UserMessage(classifierUserPrompt),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(template)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile mood classifier chain: %w", err)
	}

	return &ArkClassifier{chain: runnable}, nil
}

func (c *ArkClassifier) Classify(ctx context.Context, text string) (*mood.Classification, error) {
	msg, err := c.chain.Invoke(ctx, map[string]any{"text": text})
	if err != nil {
		return nil, unavailable("classifier invoke failed: %v", err)
	}

	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return nil, unavailable("empty classifier output")
	}

	return parseClassification(msg.Content)
}
