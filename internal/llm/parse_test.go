package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/moodcanvas/server/internal/mood"
)

func TestParseClassification(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		kind      mood.Kind
		intensity float64
	}{
		{"plain json", `{"mood":"calm","intensity":35}`, mood.Calm, 35},
		{"wrapped in prose", "Sure!\n```json\n{\"mood\": \"Energetic\", \"intensity\": 82}\n```", mood.Energetic, 82},
		{"intensity clamped high", `{"mood":"chaotic","intensity":140}`, mood.Chaotic, 100},
		{"intensity clamped low", `{"mood":"negative","intensity":-3}`, mood.Negative, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseClassification(tt.content)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, got.Kind)
			assert.Equal(t, tt.intensity, got.Intensity)
		})
	}
}

func TestParseClassificationRejects(t *testing.T) {
	for _, content := range []string{
		"",
		"no json here",
		`{"mood": "joyful", "intensity": 50}`,
		`{"mood": 7}`,
		`} backwards {`,
	} {
		_, err := parseClassification(content)
		assert.ErrorIs(t, err, ErrClassificationUnavailable, content)
	}
}

func TestNewClassifier(t *testing.T) {
	c, err := NewClassifier(t.Context(), &Config{Provider: ProviderNone})
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = NewClassifier(t.Context(), &Config{Provider: ProviderAnthropic, AnthropicKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &AnthropicClassifier{}, c)

	_, err = NewClassifier(t.Context(), &Config{Provider: "openai"})
	assert.Error(t, err)

	_, err = NewClassifier(t.Context(), nil)
	assert.Error(t, err)
}
