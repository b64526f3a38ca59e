package sessions

import (
	"context"
	"time"

	"codeberg.org/moodcanvas/server/internal/canvas"
	"codeberg.org/moodcanvas/server/internal/mood"
)

const (
	// maximum session name length in runes
	MaxNameLength = 100

	// maximum user id length in runes
	MaxUserIDLength = 100

	// maximum chat message length in runes
	MaxMessageLength = 5000

	// chat messages retained per session; older ones are dropped
	DefaultChatHistoryLimit = 500

	// default bound on one external classification call
	DefaultClassifierTimeout = 8 * time.Second
)

// classifies chat text into a mood. Implementations return an error when no
// verdict is available; the registry then falls back to the local heuristic.
type Classifier interface {
	Classify(ctx context.Context, text string) (*mood.Classification, error)
}

// read-only copy of a session handed out by the registry
type View struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	CreatedAt     time.Time       `json:"created_at"`
	LastActivity  time.Time       `json:"last_activity"`
	Participants  []string        `json:"participants"`
	Canvas        canvas.Snapshot `json:"canvas"`
	HistoryIndex  int             `json:"history_index"`
	HistoryLength int             `json:"history_length"`
	CanUndo       bool            `json:"can_undo"`
	CanRedo       bool            `json:"can_redo"`
	Mood          mood.State      `json:"mood"`
	MessageCount  int             `json:"message_count"`
}

// a chat message. Reactions map an emoji to the sorted ids of the users who
// reacted with it; empty buckets never appear.
type ChatMessage struct {
	ID        string              `json:"id"`
	SessionID string              `json:"session_id"`
	UserID    string              `json:"user_id"`
	Text      string              `json:"text"`
	Timestamp time.Time           `json:"timestamp"`
	ReplyTo   string              `json:"reply_to,omitempty"`
	Reactions map[string][]string `json:"reactions"`
}

// outcome of appending a chat message
type ChatResult struct {
	Message ChatMessage `json:"message"`
	Mood    mood.State  `json:"mood"`
}

// the persisted header of a session. Participants are connection-scoped and
// are not persisted.
type Info struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

// everything needed to rebuild a session after a restart. Only the latest
// canvas snapshot is kept; undo history does not survive a restart.
type Record struct {
	Session  Info            `json:"session"`
	Canvas   canvas.Snapshot `json:"canvas"`
	Messages []ChatMessage   `json:"messages"`
	Samples  []mood.Sample   `json:"samples"`
}

// outcome of sweeping one session
type SweepResult struct {
	Evicted        bool
	SamplesRemoved int
}

// durable storage for session records
type Repository interface {
	SaveSession(ctx context.Context, record *Record) error
	LoadSessions(ctx context.Context) ([]*Record, error)
	DeleteSession(ctx context.Context, sessionID string) error
	Close() error
}

// internal per-session state, guarded by Registry.mu
type session struct {
	id           string
	name         string
	createdAt    time.Time
	lastActivity time.Time
	participants map[string]struct{}
	canvas       *canvas.History
	messages     []*chatEntry
	samples      []mood.Sample

	// bumped on every (re)creation; async work tagged with an older value is
	// discarded
	generation uint64

	// cancelled when the session is removed
	ctx    context.Context
	cancel context.CancelFunc
}

type chatEntry struct {
	id        string
	userID    string
	text      string
	timestamp time.Time
	replyTo   string
	reactions map[string]map[string]struct{}
}
