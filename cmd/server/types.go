package main

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"codeberg.org/moodcanvas/server/internal/buffer"
	"codeberg.org/moodcanvas/server/internal/config"
	"codeberg.org/moodcanvas/server/internal/llm"
	ws "codeberg.org/moodcanvas/server/internal/websocket"
	"codeberg.org/moodcanvas/server/moodcanvas/sessions"
)

// holds all dependencies and state for the API server
type Server struct {
	config         *config.Config
	registry       *sessions.Registry
	hub            *ws.Hub
	router         *gin.Engine
	classifier     llm.Classifier
	storage        *Storage
	cleanupService *sessions.CleanupService
}

// optional persistence; every field may be nil when the server runs purely
// in memory
type Storage struct {
	db        *pgxpool.Pool
	repo      sessions.Repository
	buffer    *buffer.SessionBuffer
	flusher   *buffer.Flusher
	persister *sessions.Persister
}
