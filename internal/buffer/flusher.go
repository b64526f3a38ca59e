package buffer

import (
	"context"
	"sync"
	"time"

	"codeberg.org/moodcanvas/server/internal/logger"
	"codeberg.org/moodcanvas/server/moodcanvas/sessions"
)

// handles periodic flushing of buffered records from Redis to the durable store
type Flusher struct {
	buffer   *SessionBuffer
	repo     sessions.Repository
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// creates a new flusher that periodically flushes Redis into repo
func NewFlusher(buffer *SessionBuffer, repo sessions.Repository, interval time.Duration) *Flusher {
	return &Flusher{
		buffer:   buffer,
		repo:     repo,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// begins the background flush loop
func (f *Flusher) Start() {
	f.wg.Add(1)
	go f.run()
	logger.Info("buffer flusher started", "interval", f.interval.String())
}

// gracefully stops the flusher and flushes any remaining data
func (f *Flusher) Stop() {
	f.stopOnce.Do(func() { close(f.stopCh) })
	f.wg.Wait()
	logger.Info("buffer flusher stopped")
}

func (f *Flusher) run() {
	defer f.wg.Done()

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			f.Flush(context.Background())
		case <-f.stopCh:
			// final flush before stopping
			logger.Info("flushing remaining buffer data before shutdown")
			f.Flush(context.Background())
			return
		}
	}
}

// writes every dirty buffered record to the durable store and returns how
// many were written
func (f *Flusher) Flush(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	sessionIDs, err := f.buffer.GetDirtySessions(ctx)
	if err != nil {
		logger.ErrorErr(err, "failed to get dirty sessions")
		return 0
	}

	if len(sessionIDs) == 0 {
		return 0
	}

	logger.Debug("flushing buffered sessions", "count", len(sessionIDs))

	flushed := 0
	for _, sessionID := range sessionIDs {
		record, err := f.buffer.FlushRecord(ctx, sessionID)
		if err != nil {
			logger.ErrorErr(err, "failed to flush session from buffer", "session_id", sessionID)
			continue
		}

		if record == nil {
			continue
		}

		if err := f.repo.SaveSession(ctx, record); err != nil {
			logger.ErrorErr(err, "failed to persist buffered session", "session_id", sessionID)
			// re-add to dirty set so we retry next flush
			f.buffer.MarkDirty(ctx, sessionID) //nolint:errcheck // best-effort retry
			continue
		}

		// a delete that ran while the save was in flight clears the buffer;
		// repeat it so the durable copy does not outlive the session
		if current, err := f.buffer.GetRecord(ctx, sessionID); err == nil && current == nil {
			if err := f.repo.DeleteSession(ctx, sessionID); err != nil {
				logger.ErrorErr(err, "failed to drop flushed record of deleted session", "session_id", sessionID)
			}
			continue
		}

		flushed++
	}

	return flushed
}
