package sessions

import (
	"fmt"
	"slices"
	"time"

	"codeberg.org/moodcanvas/server/internal/canvas"
	"codeberg.org/moodcanvas/server/internal/logger"
	"codeberg.org/moodcanvas/server/internal/mood"
)

// returns a persistable copy of the session
func (r *Registry) Export(sessionID string) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	messages := make([]ChatMessage, len(s.messages))
	for i, e := range s.messages {
		messages[i] = e.message(sessionID)
	}

	return &Record{
		Session: Info{
			ID:           s.id,
			Name:         s.name,
			CreatedAt:    s.createdAt,
			LastActivity: s.lastActivity,
		},
		Canvas:   s.canvas.Current(),
		Messages: messages,
		Samples:  slices.Clone(s.samples),
	}, nil
}

// rebuilds sessions from persisted records and returns how many were
// loaded. Records without an id, or whose id is already live, are skipped.
// Sample data is taken as stored; the sweeper reports anything malformed.
func (r *Registry) Restore(records []*Record) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	restored := 0
	for _, rec := range records {
		if rec == nil || rec.Session.ID == "" {
			continue
		}

		if _, exists := r.sessions[rec.Session.ID]; exists {
			logger.Warn("skipping restore of live session", "session_id", rec.Session.ID)
			continue
		}

		lastActivity := rec.Session.LastActivity
		if lastActivity.IsZero() {
			lastActivity = rec.Session.CreatedAt
		}

		s := r.newSession(rec.Session.ID, rec.Session.Name, rec.Session.CreatedAt, lastActivity, canvas.Restore(rec.Canvas))
		s.samples = slices.Clone(rec.Samples)

		for _, m := range rec.Messages {
			if m.ID == "" {
				continue
			}
			s.messages = append(s.messages, restoreEntry(m))
			r.messages[m.ID] = s.id
		}

		r.sessions[s.id] = s
		restored++
	}

	return restored
}

// returns and clears the ids of sessions changed since the previous call
func (r *Registry) DirtySessions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := sortedKeys(r.dirty)
	clear(r.dirty)

	return ids
}

// flags a live session for the next persistence pass
func (r *Registry) MarkDirty(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[sessionID]; ok {
		r.markDirty(sessionID)
	}
}

// evicts the session when its newest mood sample (or its last activity, if
// it has none) is older than timeout; otherwise drops samples older than
// timeout. A session whose data cannot be trusted is left alone and
// ErrCorruptData is returned.
func (r *Registry) SweepSession(sessionID string, now time.Time, timeout time.Duration) (SweepResult, error) {
	r.mu.Lock()

	s, ok := r.sessions[sessionID]
	if !ok {
		r.mu.Unlock()
		return SweepResult{}, ErrSessionNotFound
	}

	if err := checkIntegrity(s); err != nil {
		r.mu.Unlock()
		return SweepResult{}, err
	}

	lastMoodActivity, ok := mood.LatestTimestamp(s.samples)
	if !ok {
		lastMoodActivity = s.lastActivity
	}

	if now.Sub(lastMoodActivity) > timeout {
		removed := len(s.samples)
		r.removeLocked(s)
		notify := r.onRemoved
		r.mu.Unlock()

		if notify != nil {
			notify(sessionID)
		}

		return SweepResult{Evicted: true, SamplesRemoved: removed}, nil
	}

	kept, removed := mood.PruneOlderThan(s.samples, now.Add(-timeout))
	if removed > 0 {
		s.samples = kept
		r.markDirty(sessionID)
	}

	r.mu.Unlock()

	return SweepResult{SamplesRemoved: removed}, nil
}

func checkIntegrity(s *session) error {
	if s.lastActivity.IsZero() {
		return fmt.Errorf("%w: session %s has no activity timestamp", ErrCorruptData, s.id)
	}

	if s.canvas == nil {
		return fmt.Errorf("%w: session %s has no canvas history", ErrCorruptData, s.id)
	}

	for i, sample := range s.samples {
		if err := sample.Validate(); err != nil {
			return fmt.Errorf("%w: session %s sample %d: %v", ErrCorruptData, s.id, i, err)
		}
	}

	return nil
}

func restoreEntry(m ChatMessage) *chatEntry {
	e := &chatEntry{
		id:        m.ID,
		userID:    m.UserID,
		text:      m.Text,
		timestamp: m.Timestamp,
		replyTo:   m.ReplyTo,
		reactions: make(map[string]map[string]struct{}, len(m.Reactions)),
	}

	for emoji, users := range m.Reactions {
		if len(users) == 0 {
			continue
		}
		set := make(map[string]struct{}, len(users))
		for _, u := range users {
			set[u] = struct{}{}
		}
		e.reactions[emoji] = set
	}

	return e
}
