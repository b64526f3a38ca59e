package main

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"codeberg.org/moodcanvas/server/internal/config"
	"codeberg.org/moodcanvas/server/internal/logger"
	ws "codeberg.org/moodcanvas/server/internal/websocket"
	"codeberg.org/moodcanvas/server/moodcanvas/sessions"
)

// creates and configures a new server instance with all dependencies
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	classifier, err := InitializeClassifier(ctx, cfg)
	if err != nil {
		return nil, err
	}

	opts := []sessions.Option{}
	if classifier != nil {
		opts = append(opts, sessions.WithClassifier(classifier, cfg.ClassifierTimeout))
	}

	if cfg.RequireUniqueSessionNames {
		opts = append(opts, sessions.WithUniqueNames())
	}

	registry := sessions.NewRegistry(opts...)

	storage, err := InitializeStorage(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	if err := storage.Attach(ctx, registry, cfg.PersistInterval); err != nil {
		storage.Stop()
		storage.Close()
		return nil, err
	}

	hub := ws.NewHub()

	// registers every inbound message type and the mood/disconnect callbacks
	ws.RegisterSessionHandlers(hub, registry)

	cleanupService := sessions.NewCleanupService(
		registry,
		cfg.SweepInterval,
		cfg.InactiveTimeout,
		func(sessionID, reason string) {
			// notify connected participants before the session disappears
			hub.EndSession(sessionID, reason)
		},
	)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger())

	server := &Server{
		config:         cfg,
		registry:       registry,
		hub:            hub,
		router:         router,
		classifier:     classifier,
		storage:        storage,
		cleanupService: cleanupService,
	}

	if err := RegisterRoutes(router, server); err != nil {
		storage.Stop()
		storage.Close()
		return nil, err
	}

	logger.Info("server initialized",
		"environment", cfg.Environment,
		"restored_sessions", registry.Count(),
	)

	return server, nil
}
