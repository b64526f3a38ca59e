package mood

import (
	"fmt"
	"time"
)

type Kind string

const (
	Positive  Kind = "positive"
	Negative  Kind = "negative"
	Neutral   Kind = "neutral"
	Energetic Kind = "energetic"
	Calm      Kind = "calm"
	Chaotic   Kind = "chaotic"
)

// Kinds is the canonical enumeration order. Dominant-kind selection walks it
// in this order, so earlier kinds win ties.
var Kinds = []Kind{Positive, Negative, Neutral, Energetic, Calm, Chaotic}

// where a sample came from
type Source string

const (
	SourceChat        Source = "chat"
	SourceDrawing     Source = "drawing"
	SourceInteraction Source = "interaction"
)

const (
	// samples younger than this take part in aggregation
	Window = 5 * time.Minute

	// minimum weight of an in-window sample
	MinWeight = 0.1

	// retention: trimming starts once a session holds more than MaxSamples
	MaxSamples = 100

	// retention: first-phase age cutoff
	RetentionAge = time.Hour

	// intensity reported when nothing is known
	DefaultIntensity = 50.0
)

// a single immutable mood observation
type Sample struct {
	Kind      Kind      `json:"kind"`
	Intensity float64   `json:"intensity"`
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"user_id,omitempty"`
	Source    Source    `json:"source,omitempty"`
	MessageID string    `json:"message_id,omitempty"`
}

// the derived dominant mood; recomputed on demand, never stored
type State struct {
	Kind      Kind      `json:"kind"`
	Intensity float64   `json:"intensity"`
	Timestamp time.Time `json:"timestamp"`
}

// a classifier or heuristic verdict for one piece of text
type Classification struct {
	Kind      Kind    `json:"kind"`
	Intensity float64 `json:"intensity"`
}

// reports whether k is one of the six known kinds
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}

	return false
}

// parses a kind name, case-sensitive as sent on the wire
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown mood kind %q", s)
	}

	return k, nil
}

// parses a sample source; empty means an interaction
func ParseSource(s string) (Source, error) {
	switch src := Source(s); src {
	case "":
		return SourceInteraction, nil
	case SourceChat, SourceDrawing, SourceInteraction:
		return src, nil
	}

	return "", fmt.Errorf("unknown mood source %q", s)
}

// checks the sample is well formed
func (s Sample) Validate() error {
	if !s.Kind.Valid() {
		return fmt.Errorf("invalid mood sample: unknown kind %q", s.Kind)
	}

	if s.Intensity < 0 || s.Intensity > 100 {
		return fmt.Errorf("invalid mood sample: intensity %v out of range", s.Intensity)
	}

	if s.Timestamp.IsZero() {
		return fmt.Errorf("invalid mood sample: missing timestamp")
	}

	return nil
}

// returns the sample's state view
func (s Sample) State() State {
	return State{Kind: s.Kind, Intensity: s.Intensity, Timestamp: s.Timestamp}
}

// turns a classification into a sample taken at ts
func (c Classification) Sample(ts time.Time, source Source) Sample {
	return Sample{
		Kind:      c.Kind,
		Intensity: ClampIntensity(c.Intensity),
		Timestamp: ts,
		Source:    source,
	}
}

func ClampIntensity(v float64) float64 {
	return min(100, max(0, v))
}
