package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/moodcanvas/server/internal/config"
	"codeberg.org/moodcanvas/server/internal/logger"
)

// @title Mood Canvas API
// @version 1.0
// @description Ephemeral collaboration sessions with a shared canvas, chat and a live group mood
// @description
// @description Features:
// @description - Session lifecycle over REST
// @description - Real-time canvas, chat and mood updates via WebSockets
// @description - Undo/redo canvas history
// @description - Automatic cleanup of inactive sessions

// @contact.name API Support
// @contact.url https://codeberg.org/moodcanvas/server

// @license.name GPL-3.0
// @license.url https://www.gnu.org/licenses/gpl-3.0.html

func main() {
	// load configuration from environment
	cfg, err := config.LoadEnvironmentVariables()
	if err != nil {
		logger.Fatal("failed to load configuration", "error", err)
	}

	logger.SetDefault(logger.New(cfg.Environment, os.Getenv("LOG_LEVEL")))

	logger.Info("starting moodcanvas server")

	ctx := context.Background()

	// create server with all dependencies
	srv, err := NewServer(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to create server", "error", err)
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      srv.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// start server in goroutine
	go func() {
		logger.Info("server listening", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed to start", "error", err)
		}
	}()

	// start websocket hub
	go srv.hub.Run()

	// start session cleanup service with cancellable context
	cleanupCtx, cleanupCancel := context.WithCancel(ctx)
	go srv.cleanupService.Start(cleanupCtx)

	// wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// stop cleanup service
	cleanupCancel()

	logger.Info("shutting down server")

	// notify websocket clients and close connections first
	srv.hub.Shutdown()

	// cancel in-flight classifications so the final save sees settled state
	srv.registry.Close()

	// save pending sessions (persister, then buffer flush)
	srv.storage.Stop()

	// graceful shutdown with 10 second timeout
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	srv.storage.Close()

	logger.Info("server stopped")
}
