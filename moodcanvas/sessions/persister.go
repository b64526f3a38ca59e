package sessions

import (
	"context"
	"sync"
	"time"

	"codeberg.org/moodcanvas/server/internal/logger"
)

// handles periodic saving of changed sessions to the repository
type Persister struct {
	registry *Registry
	repo     Repository
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	// held across export+save and across delete, so a save that started
	// before a removal finishes before the row is deleted
	storeMu sync.Mutex
}

// creates a persister that saves dirty sessions every interval
func NewPersister(registry *Registry, repo Repository, interval time.Duration) *Persister {
	return &Persister{
		registry: registry,
		repo:     repo,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// loads every stored session into the registry
func (p *Persister) Restore(ctx context.Context) (int, error) {
	records, err := p.repo.LoadSessions(ctx)
	if err != nil {
		return 0, err
	}

	restored := p.registry.Restore(records)
	logger.Info("restored sessions from storage", "count", restored)

	return restored, nil
}

// begins the background save loop
func (p *Persister) Start() {
	p.wg.Add(1)
	go p.run()
	logger.Info("session persister started", "interval", p.interval.String())
}

// stops the loop after a final flush
func (p *Persister) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
	p.wg.Wait()
	logger.Info("session persister stopped")
}

// removes a deleted or evicted session from storage
func (p *Persister) Forget(sessionID string) {
	p.storeMu.Lock()
	defer p.storeMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := p.repo.DeleteSession(ctx, sessionID); err != nil {
		logger.ErrorErr(err, "failed to delete persisted session", "session_id", sessionID)
	}
}

func (p *Persister) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.Flush(context.Background())
		case <-p.stopCh:
			logger.Info("saving remaining sessions before shutdown")
			p.Flush(context.Background())
			return
		}
	}
}

// saves every session changed since the previous flush and returns how many
// were written. Failed saves are retried on the next flush.
func (p *Persister) Flush(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	ids := p.registry.DirtySessions()
	if len(ids) == 0 {
		return 0
	}

	logger.Debug("persisting sessions", "count", len(ids))

	saved := 0
	for _, id := range ids {
		if p.save(ctx, id) {
			saved++
		}
	}

	return saved
}

func (p *Persister) save(ctx context.Context, id string) bool {
	p.storeMu.Lock()
	defer p.storeMu.Unlock()

	record, err := p.registry.Export(id)
	if err != nil {
		// removed since it was marked
		return false
	}

	if err := p.repo.SaveSession(ctx, record); err != nil {
		logger.ErrorErr(err, "failed to persist session", "session_id", id)
		// re-add to dirty set so we retry next flush
		p.registry.MarkDirty(id)
		return false
	}

	return true
}
