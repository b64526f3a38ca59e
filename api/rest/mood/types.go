package mood

import (
	"time"

	"codeberg.org/moodcanvas/server/internal/mood"
)

// where a verdict came from
const (
	SourceClassifier = "classifier"
	SourceHeuristic  = "heuristic"
)

// stores verdicts as samples of a session
type MoodRecorder interface {
	RecordMoodSample(sessionID string, sample mood.Sample) error
	CurrentMood(sessionID string, now time.Time) (mood.State, error)
}

// without session_id the verdict is only returned. With it, the verdict is
// also recorded in that session as a sample of the given activity (chat,
// drawing or interaction, default interaction).
type AnalyzeRequest struct {
	Text      string `json:"text" binding:"required,max=5000"`
	SessionID string `json:"session_id,omitempty"`
	Activity  string `json:"activity,omitempty"`
}

type AnalyzeResponse struct {
	Kind      mood.Kind   `json:"kind"`
	Intensity float64     `json:"intensity"`
	Source    string      `json:"source"`
	SessionID string      `json:"session_id,omitempty"`
	Mood      *mood.State `json:"mood,omitempty"` // session mood after recording
}
