package main

import (
	"context"
	"fmt"
	"time"

	"codeberg.org/moodcanvas/server/internal/buffer"
	"codeberg.org/moodcanvas/server/internal/config"
	"codeberg.org/moodcanvas/server/internal/llm"
	"codeberg.org/moodcanvas/server/internal/logger"
	"codeberg.org/moodcanvas/server/moodcanvas/sessions"
)

const (
	classifierMaxTokens   = 64
	classifierTemperature = 0
)

// creates the configured mood classifier, nil when none is configured
func InitializeClassifier(ctx context.Context, cfg *config.Config) (llm.Classifier, error) {
	classifier, err := llm.NewClassifier(ctx, &llm.Config{
		Provider:       llm.Provider(cfg.ClassifierProvider),
		AnthropicKey:   cfg.AnthropicKey,
		AnthropicModel: cfg.AnthropicModel,
		ArkAPIKey:      cfg.ArkAPIKey,
		ArkModel:       cfg.ArkModel,
		ArkBaseURL:     cfg.ArkBaseURL,
		MaxTokens:      classifierMaxTokens,
		Temperature:    classifierTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create mood classifier: %w", err)
	}

	if classifier == nil {
		logger.Info("no mood classifier configured, using local heuristic")
	} else {
		logger.Info("mood classifier initialized", "provider", cfg.ClassifierProvider)
	}

	return classifier, nil
}

// opens the durable store selected by cfg and, when Redis is configured,
// puts the write buffer in front of it. Returns an empty Storage when no
// store is configured.
func InitializeStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	storage := &Storage{}

	if cfg.RedisURL != "" {
		sessionBuffer, err := buffer.NewSessionBuffer(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis buffer: %w", err)
		}
		storage.buffer = sessionBuffer
	}

	var durable sessions.Repository
	switch {
	case cfg.DatabaseURL != "":
		db, err := sessions.ConnectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			storage.Close()
			return nil, err
		}
		storage.db = db

		durable, err = sessions.NewPostgresRepository(ctx, db)
		if err != nil {
			storage.Close()
			return nil, err
		}
		logger.Info("using postgres session store")
	case cfg.SQLitePath != "":
		repo, err := sessions.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			storage.Close()
			return nil, err
		}
		durable = repo
		logger.Info("using sqlite session store", "path", cfg.SQLitePath)
	default:
		logger.Info("no session store configured, sessions live in memory only")
		return storage, nil
	}

	if storage.buffer == nil {
		storage.repo = durable
		return storage, nil
	}

	// writes go to Redis, the flusher drains them into the durable store
	storage.repo = buffer.NewBufferedRepository(durable, storage.buffer)
	storage.flusher = buffer.NewFlusher(storage.buffer, durable, cfg.BufferFlushInterval)

	return storage, nil
}

// restores persisted sessions into registry and starts background saving
func (s *Storage) Attach(ctx context.Context, registry *sessions.Registry, interval time.Duration) error {
	if s.repo == nil {
		return nil
	}

	s.persister = sessions.NewPersister(registry, s.repo, interval)
	if _, err := s.persister.Restore(ctx); err != nil {
		return fmt.Errorf("failed to restore sessions: %w", err)
	}

	registry.OnSessionRemoved(s.persister.Forget)

	if s.flusher != nil {
		s.flusher.Start()
	}
	s.persister.Start()

	return nil
}

// stops background writers, saving what is still pending
func (s *Storage) Stop() {
	if s.persister != nil {
		s.persister.Stop()
	}

	if s.flusher != nil {
		s.flusher.Stop()
	}
}

// releases every connection; safe on a partially initialized Storage
func (s *Storage) Close() {
	switch {
	case s.repo != nil:
		// a buffered repository also closes the buffer
		if err := s.repo.Close(); err != nil {
			logger.ErrorErr(err, "failed to close session store")
		}
	case s.buffer != nil:
		if err := s.buffer.Close(); err != nil {
			logger.ErrorErr(err, "failed to close redis buffer")
		}
	}

	if s.db != nil {
		s.db.Close()
	}
}
