package sessions

import (
	"fmt"

	"codeberg.org/moodcanvas/server/internal/canvas"
)

// records snapshot as the newest canvas state and returns it
func (r *Registry) PushCanvasSnapshot(sessionID string, snapshot canvas.Snapshot) (canvas.Snapshot, error) {
	if err := snapshot.Validate(); err != nil {
		return canvas.Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return canvas.Snapshot{}, ErrSessionNotFound
	}

	s.canvas.Push(snapshot)
	s.lastActivity = r.now()
	r.markDirty(sessionID)

	return s.canvas.Current(), nil
}

func (r *Registry) Undo(sessionID string) (canvas.Snapshot, error) {
	return r.moveCursor(sessionID, (*canvas.History).Undo)
}

func (r *Registry) Redo(sessionID string) (canvas.Snapshot, error) {
	return r.moveCursor(sessionID, (*canvas.History).Redo)
}

func (r *Registry) Canvas(sessionID string) (canvas.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return canvas.Snapshot{}, ErrSessionNotFound
	}

	return s.canvas.Current(), nil
}

func (r *Registry) moveCursor(sessionID string, move func(*canvas.History) (canvas.Snapshot, bool)) (canvas.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return canvas.Snapshot{}, ErrSessionNotFound
	}

	before := s.canvas.Index()
	snapshot, _ := move(s.canvas)

	// boundaries are no-ops and leave activity untouched
	if s.canvas.Index() != before {
		s.lastActivity = r.now()
		r.markDirty(sessionID)
	}

	return snapshot, nil
}
