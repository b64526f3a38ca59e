package buffer

import (
	"context"

	"codeberg.org/moodcanvas/server/internal/logger"
	"codeberg.org/moodcanvas/server/moodcanvas/sessions"
)

// wraps a sessions.Repository with Redis buffering
// saves go to Redis first, loads overlay unflushed records on the durable ones
type BufferedRepository struct {
	db     sessions.Repository
	buffer *SessionBuffer
}

// creates a new buffered repository wrapper
func NewBufferedRepository(db sessions.Repository, buffer *SessionBuffer) *BufferedRepository {
	return &BufferedRepository{
		db:     db,
		buffer: buffer,
	}
}

// writes to the Redis buffer instead of the durable store
func (r *BufferedRepository) SaveSession(ctx context.Context, record *sessions.Record) error {
	if err := r.buffer.SetRecord(ctx, record); err != nil {
		logger.ErrorErr(err, "failed to buffer session", "session_id", record.Session.ID)
		// fall back to direct write
		return r.db.SaveSession(ctx, record)
	}

	return nil
}

func (r *BufferedRepository) LoadSessions(ctx context.Context) ([]*sessions.Record, error) {
	records, err := r.db.LoadSessions(ctx)
	if err != nil {
		return nil, err
	}

	dirty, err := r.buffer.GetDirtySessions(ctx)
	if err != nil {
		logger.ErrorErr(err, "failed to list buffered sessions, loading durable state only")
		return records, nil
	}

	byID := make(map[string]int, len(records))
	for i, rec := range records {
		byID[rec.Session.ID] = i
	}

	// buffered records are newer than anything flushed
	for _, id := range dirty {
		rec, err := r.buffer.GetRecord(ctx, id)
		if err != nil || rec == nil {
			continue
		}

		if i, ok := byID[id]; ok {
			records[i] = rec
		} else {
			records = append(records, rec)
		}
	}

	return records, nil
}

// deletes are not buffered
func (r *BufferedRepository) DeleteSession(ctx context.Context, sessionID string) error {
	if err := r.buffer.ClearSession(ctx, sessionID); err != nil {
		logger.ErrorErr(err, "failed to clear buffered session", "session_id", sessionID)
	}

	return r.db.DeleteSession(ctx, sessionID)
}

func (r *BufferedRepository) Close() error {
	bufErr := r.buffer.Close()
	if err := r.db.Close(); err != nil {
		return err
	}

	return bufErr
}

var _ sessions.Repository = (*BufferedRepository)(nil)
