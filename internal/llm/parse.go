package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"codeberg.org/moodcanvas/server/internal/mood"
)

// extracts the verdict from model output, tolerating prose or code fences
// around the JSON object
func parseClassification(content string) (*mood.Classification, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("%w: missing json object", ErrClassificationUnavailable)
	}

	var payload classifierPayload
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClassificationUnavailable, err)
	}

	kind, err := mood.ParseKind(strings.ToLower(strings.TrimSpace(payload.Mood)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClassificationUnavailable, err)
	}

	return &mood.Classification{
		Kind:      kind,
		Intensity: mood.ClampIntensity(payload.Intensity),
	}, nil
}

func unavailable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrClassificationUnavailable, fmt.Sprintf(format, args...))
}
