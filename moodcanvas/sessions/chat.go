package sessions

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"codeberg.org/moodcanvas/server/internal/logger"
	"codeberg.org/moodcanvas/server/internal/mood"
)

const maxEmojiLength = 16

// AppendChat stores a chat message and classifies its mood.
//
// Without a classifier, or once the registry is closed, the heuristic sample
// is recorded immediately. With one, the returned mood folds in a
// provisional heuristic sample that is not stored; the classifier verdict
// (or the heuristic, if the classifier fails) is recorded later and
// announced through the OnMoodUpdate callback.
func (r *Registry) AppendChat(ctx context.Context, sessionID, userID, text, replyTo string) (*ChatResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalidInput("message text is required")
	}

	if utf8.RuneCountInString(text) > MaxMessageLength {
		return nil, invalidInput("message exceeds %d characters", MaxMessageLength)
	}

	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	local := mood.Classify(text)

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	if replyTo != "" && r.messages[replyTo] != sessionID {
		return nil, ErrMessageNotFound
	}

	now := r.now()
	entry := &chatEntry{
		id:        uuid.NewString(),
		userID:    userID,
		text:      text,
		timestamp: now,
		replyTo:   replyTo,
		reactions: make(map[string]map[string]struct{}),
	}

	s.messages = append(s.messages, entry)
	r.messages[entry.id] = sessionID

	if over := len(s.messages) - r.chatLimit; over > 0 {
		for _, old := range s.messages[:over] {
			delete(r.messages, old.id)
		}
		s.messages = slices.Clone(s.messages[over:])
	}

	s.lastActivity = now
	r.markDirty(sessionID)

	sample := local.Sample(now, mood.SourceChat)
	sample.UserID = userID
	sample.MessageID = entry.id

	var state mood.State
	if r.classifier == nil || r.closed {
		s.samples = mood.Retain(append(s.samples, sample), now)
		state = mood.ComputeDominantMood(s.samples, now)
	} else {
		provisional := append(slices.Clone(s.samples), sample)
		state = mood.ComputeDominantMood(provisional, now)

		r.pending.Add(1)
		go r.classify(s.ctx, logger.FromContext(ctx), sessionID, s.generation, text, sample)
	}

	return &ChatResult{Message: entry.message(sessionID), Mood: state}, nil
}

// runs the external classifier for one message and records the verdict, or
// the heuristic fallback, if the session is still the one that asked
func (r *Registry) classify(ctx context.Context, log *slog.Logger, sessionID string, generation uint64, text string, fallback mood.Sample) {
	defer r.pending.Done()

	ctx, cancel := context.WithTimeout(ctx, r.classifierTimeout)
	defer cancel()

	sample := fallback
	result, err := r.classifier.Classify(ctx, text)
	switch {
	case err != nil:
		log.Debug("classifier unavailable, using heuristic", "session_id", sessionID, "error", err)
	case result == nil || !result.Kind.Valid():
		log.Debug("classifier returned no usable verdict, using heuristic", "session_id", sessionID)
	default:
		sample.Kind = result.Kind
		sample.Intensity = mood.ClampIntensity(result.Intensity)
	}

	r.mu.Lock()

	s, ok := r.sessions[sessionID]
	if !ok || s.generation != generation {
		r.mu.Unlock()
		log.Debug("dropping classification for removed session", "session_id", sessionID)
		return
	}

	now := r.now()
	s.samples = mood.Retain(append(s.samples, sample), now)
	state := mood.ComputeDominantMood(s.samples, now)
	r.markDirty(sessionID)
	notify := r.onMoodUpdate

	r.mu.Unlock()

	if notify != nil {
		notify(sessionID, state)
	}
}

// returns up to limit of the most recent messages, oldest first. A
// non-positive limit returns them all.
func (r *Registry) Messages(sessionID string, limit int) ([]ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	entries := s.messages
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	out := make([]ChatMessage, len(entries))
	for i, e := range entries {
		out[i] = e.message(sessionID)
	}

	return out, nil
}

// returns the id of the session a message belongs to
func (r *Registry) MessageSession(messageID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessionID, ok := r.messages[messageID]
	if !ok {
		return "", ErrMessageNotFound
	}

	return sessionID, nil
}

// adds userID to the emoji's reactions on the message, or removes it if it
// was already there. Buckets left empty are deleted.
func (r *Registry) ToggleReaction(messageID, emoji, userID string) (*ChatMessage, error) {
	emoji = strings.TrimSpace(emoji)
	if emoji == "" || utf8.RuneCountInString(emoji) > maxEmojiLength {
		return nil, invalidInput("emoji is required")
	}

	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	sessionID, ok := r.messages[messageID]
	if !ok {
		return nil, ErrMessageNotFound
	}

	s := r.sessions[sessionID]
	idx := slices.IndexFunc(s.messages, func(e *chatEntry) bool { return e.id == messageID })
	if idx < 0 {
		return nil, ErrMessageNotFound
	}

	entry := s.messages[idx]
	users := entry.reactions[emoji]
	if _, reacted := users[userID]; reacted {
		delete(users, userID)
		if len(users) == 0 {
			delete(entry.reactions, emoji)
		}
	} else {
		if users == nil {
			users = make(map[string]struct{})
			entry.reactions[emoji] = users
		}
		users[userID] = struct{}{}
	}

	r.markDirty(sessionID)
	msg := entry.message(sessionID)

	return &msg, nil
}

func (e *chatEntry) message(sessionID string) ChatMessage {
	reactions := make(map[string][]string, len(e.reactions))
	for emoji, users := range e.reactions {
		reactions[emoji] = sortedKeys(users)
	}

	return ChatMessage{
		ID:        e.id,
		SessionID: sessionID,
		UserID:    e.userID,
		Text:      e.text,
		Timestamp: e.timestamp,
		ReplyTo:   e.replyTo,
		Reactions: reactions,
	}
}
