package sessions

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"codeberg.org/moodcanvas/server/internal/canvas"
	"codeberg.org/moodcanvas/server/internal/mood"
)

type Option func(*Registry)

// routes chat text through an external classifier. Without one the local
// heuristic is applied synchronously.
func WithClassifier(c Classifier, timeout time.Duration) Option {
	return func(r *Registry) {
		r.classifier = c
		if timeout > 0 {
			r.classifierTimeout = timeout
		}
	}
}

// rejects CreateSession when another live session already has the same
// (case-insensitive) name
func WithUniqueNames() Option {
	return func(r *Registry) {
		r.uniqueNames = true
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

func WithChatHistoryLimit(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.chatLimit = n
		}
	}
}

// owns every live session. A single mutex serializes all mutations, so each
// operation observes and leaves a consistent session.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*session
	messages map[string]string // message id -> session id
	dirty    map[string]struct{}

	generation        uint64
	classifier        Classifier
	classifierTimeout time.Duration
	uniqueNames       bool
	chatLimit         int
	now               func() time.Time

	onMoodUpdate func(sessionID string, state mood.State)
	onRemoved    func(sessionID string)

	// set by Close under mu; no classifier is started afterwards
	closed  bool
	pending sync.WaitGroup
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		sessions:          make(map[string]*session),
		messages:          make(map[string]string),
		dirty:             make(map[string]struct{}),
		classifierTimeout: DefaultClassifierTimeout,
		chatLimit:         DefaultChatHistoryLimit,
		now:               time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// sets the callback fired when an asynchronous classification changes a
// session's mood
func (r *Registry) OnMoodUpdate(fn func(sessionID string, state mood.State)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onMoodUpdate = fn
}

// sets the callback fired after a session is deleted or evicted
func (r *Registry) OnSessionRemoved(fn func(sessionID string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onRemoved = fn
}

func (r *Registry) CreateSession(name string) (*View, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidInput("session name is required")
	}

	if utf8.RuneCountInString(name) > MaxNameLength {
		return nil, invalidInput("session name exceeds %d characters", MaxNameLength)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.uniqueNames {
		for _, s := range r.sessions {
			if strings.EqualFold(s.name, name) {
				return nil, ErrDuplicateName
			}
		}
	}

	now := r.now()
	s := r.newSession(uuid.NewString(), name, now, now, canvas.NewHistory())
	r.sessions[s.id] = s
	r.markDirty(s.id)

	return r.view(s, now), nil
}

func (r *Registry) JoinSession(sessionID, userID string) (*View, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	now := r.now()
	s.participants[userID] = struct{}{}
	s.lastActivity = now
	r.markDirty(sessionID)

	return r.view(s, now), nil
}

// removes userID from the session and returns who is left. An empty session
// stays alive until the sweeper evicts it.
func (r *Registry) LeaveSession(sessionID, userID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	delete(s.participants, userID)

	return sortedKeys(s.participants), nil
}

func (r *Registry) GetSession(sessionID string) (*View, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	return r.view(s, r.now()), nil
}

// returns every session, oldest first
func (r *Registry) ListSessions() []*View {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	views := make([]*View, 0, len(r.sessions))
	for _, s := range r.sessions {
		views = append(views, r.view(s, now))
	}

	slices.SortFunc(views, func(a, b *View) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	return views
}

func (r *Registry) SessionIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return sortedKeys(r.sessions)
}

func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.sessions)
}

// removes the session and cancels its pending classifications
func (r *Registry) DeleteSession(sessionID string) error {
	r.mu.Lock()

	s, ok := r.sessions[sessionID]
	if !ok {
		r.mu.Unlock()
		return ErrSessionNotFound
	}

	r.removeLocked(s)
	notify := r.onRemoved
	r.mu.Unlock()

	if notify != nil {
		notify(sessionID)
	}

	return nil
}

// appends a sample under the retention policy and announces the new mood
// through the OnMoodUpdate callback
func (r *Registry) RecordMoodSample(sessionID string, sample mood.Sample) error {
	if err := sample.Validate(); err != nil {
		return invalidInput("%v", err)
	}

	r.mu.Lock()

	s, ok := r.sessions[sessionID]
	if !ok {
		r.mu.Unlock()
		return ErrSessionNotFound
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

	return nil
}

func (r *Registry) CurrentMood(sessionID string, now time.Time) (mood.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return mood.State{}, ErrSessionNotFound
	}

	return mood.ComputeDominantMood(s.samples, now), nil
}

// blocks until every in-flight classification has finished
func (r *Registry) Wait() {
	r.pending.Wait()
}

// cancels all pending classifications and waits for them to drain. Session
// state is left in place for a final persistence flush.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	for _, s := range r.sessions {
		s.cancel()
	}
	r.mu.Unlock()

	r.pending.Wait()
}

func (r *Registry) newSession(id, name string, createdAt, lastActivity time.Time, history *canvas.History) *session {
	r.generation++
	ctx, cancel := context.WithCancel(context.Background())

	return &session{
		id:           id,
		name:         name,
		createdAt:    createdAt,
		lastActivity: lastActivity,
		participants: make(map[string]struct{}),
		canvas:       history,
		generation:   r.generation,
		ctx:          ctx,
		cancel:       cancel,
	}
}

func (r *Registry) removeLocked(s *session) {
	s.cancel()

	for _, m := range s.messages {
		delete(r.messages, m.id)
	}

	delete(r.sessions, s.id)
	delete(r.dirty, s.id)
}

func (r *Registry) markDirty(sessionID string) {
	r.dirty[sessionID] = struct{}{}
}

func (r *Registry) view(s *session, now time.Time) *View {
	return &View{
		ID:            s.id,
		Name:          s.name,
		CreatedAt:     s.createdAt,
		LastActivity:  s.lastActivity,
		Participants:  sortedKeys(s.participants),
		Canvas:        s.canvas.Current(),
		HistoryIndex:  s.canvas.Index(),
		HistoryLength: s.canvas.Len(),
		CanUndo:       s.canvas.CanUndo(),
		CanRedo:       s.canvas.CanRedo(),
		Mood:          mood.ComputeDominantMood(s.samples, now),
		MessageCount:  len(s.messages),
	}
}

func validateUserID(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return invalidInput("user id is required")
	}

	if utf8.RuneCountInString(userID) > MaxUserIDLength {
		return invalidInput("user id exceeds %d characters", MaxUserIDLength)
	}

	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys
}
