package sessions

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"codeberg.org/moodcanvas/server/internal/logger"
)

const (
	DefaultSweepInterval   = time.Hour
	DefaultInactiveTimeout = 24 * time.Hour
)

// called to notify WebSocket clients when a session is being cleaned up
type SessionEnderFunc func(sessionID string, reason string)

// the registry surface the sweeper needs
type Sweepable interface {
	SessionIDs() []string
	SweepSession(sessionID string, now time.Time, timeout time.Duration) (SweepResult, error)
}

// outcome of one sweep, kept until the next one
type Stats struct {
	InactiveSessionsEvicted int       `json:"inactive_sessions_evicted"`
	MoodSamplesRemoved      int       `json:"mood_samples_removed"`
	SessionsSkipped         int       `json:"sessions_skipped"`
	Timestamp               time.Time `json:"timestamp"`
}

// evicts inactive sessions and prunes stale mood samples
type CleanupService struct {
	registry        Sweepable
	checkInterval   time.Duration
	inactiveTimeout time.Duration
	sessionEnder    SessionEnderFunc
	now             func() time.Time

	// held for the whole sweep so a manual trigger queues behind a timed one
	sweepMu sync.Mutex

	statsMu sync.RWMutex
	last    *Stats
}

// creates a new cleanup service
func NewCleanupService(
	registry Sweepable,
	checkInterval time.Duration,
	inactiveTimeout time.Duration,
	sessionEnder SessionEnderFunc,
) *CleanupService {
	if checkInterval <= 0 {
		checkInterval = DefaultSweepInterval
	}

	if inactiveTimeout <= 0 {
		inactiveTimeout = DefaultInactiveTimeout
	}

	return &CleanupService{
		registry:        registry,
		checkInterval:   checkInterval,
		inactiveTimeout: inactiveTimeout,
		sessionEnder:    sessionEnder,
		now:             time.Now,
	}
}

// begins the cleanup service background loop
func (s *CleanupService) Start(ctx context.Context) {
	logger.Info("starting session cleanup service",
		"check_interval", s.checkInterval,
		"inactive_timeout", s.inactiveTimeout,
	)

	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("session cleanup service stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// runs one sweep over every session and retains the result. Concurrent
// callers are serialized.
func (s *CleanupService) Sweep(ctx context.Context) Stats {
	s.sweepMu.Lock()
	defer s.sweepMu.Unlock()

	now := s.now()
	stats := Stats{Timestamp: now}

	for _, id := range s.registry.SessionIDs() {
		if ctx.Err() != nil {
			logger.Warn("sweep interrupted", "error", ctx.Err())
			break
		}

		result, err := s.sweepOne(id, now)
		switch {
		case errors.Is(err, ErrSessionNotFound):
			// removed while the sweep was running
			continue
		case err != nil:
			stats.SessionsSkipped++
			logger.ErrorErr(err, "skipping session during sweep", "session_id", id)
			continue
		}

		stats.MoodSamplesRemoved += result.SamplesRemoved

		if result.Evicted {
			stats.InactiveSessionsEvicted++
			logger.Info("evicted inactive session", "session_id", id)

			if s.sessionEnder != nil {
				s.sessionEnder(id, "session expired due to inactivity")
			}
		}
	}

	s.statsMu.Lock()
	s.last = &stats
	s.statsMu.Unlock()

	if stats.InactiveSessionsEvicted > 0 || stats.MoodSamplesRemoved > 0 || stats.SessionsSkipped > 0 {
		logger.Info("session sweep completed",
			"evicted", stats.InactiveSessionsEvicted,
			"samples_removed", stats.MoodSamplesRemoved,
			"skipped", stats.SessionsSkipped,
		)
	}

	return stats
}

// returns the stats of the most recent sweep, if one has run
func (s *CleanupService) LastStats() (Stats, bool) {
	s.statsMu.RLock()
	defer s.statsMu.RUnlock()

	if s.last == nil {
		return Stats{}, false
	}

	return *s.last, true
}

func (s *CleanupService) sweepOne(id string, now time.Time) (result SweepResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: panic while sweeping: %v", ErrCorruptData, rec)
		}
	}()

	return s.registry.SweepSession(id, now, s.inactiveTimeout)
}
