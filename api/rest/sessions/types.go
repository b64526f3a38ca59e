package sessions

import (
	"time"

	"codeberg.org/moodcanvas/server/api/rest/pagination"
	"codeberg.org/moodcanvas/server/internal/canvas"
	"codeberg.org/moodcanvas/server/internal/mood"
	"codeberg.org/moodcanvas/server/moodcanvas/sessions"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200

	defaultMessagesLimit = 100
	maxMessagesLimit     = sessions.DefaultChatHistoryLimit
)

// notifies connected clients that a session is gone
type SessionEnder interface {
	EndSession(sessionID, reason string)
}

type CreateSessionRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

type JoinSessionRequest struct {
	UserID string `json:"user_id" binding:"required,max=100"`
}

type ReactionRequest struct {
	Emoji  string `json:"emoji" binding:"required,max=64"`
	UserID string `json:"user_id" binding:"required,max=100"`
}

type SessionResponse struct {
	Session *sessions.View `json:"session"`
}

type ListSessionsResponse struct {
	Sessions   []*sessions.View `json:"sessions"`
	Pagination pagination.Meta  `json:"pagination"`
}

type MessagesResponse struct {
	Messages []sessions.ChatMessage `json:"messages"`
}

type MessageResponse struct {
	Message *sessions.ChatMessage `json:"message"`
}

type MoodResponse struct {
	SessionID string     `json:"session_id"`
	Mood      mood.State `json:"mood"`
}

type CanvasResponse struct {
	SessionID     string          `json:"session_id"`
	Canvas        canvas.Snapshot `json:"canvas"`
	HistoryIndex  int             `json:"history_index"`
	HistoryLength int             `json:"history_length"`
	CanUndo       bool            `json:"can_undo"`
	CanRedo       bool            `json:"can_redo"`
	LastActivity  time.Time       `json:"last_activity"`
}

type DeleteSessionResponse struct {
	Message string `json:"message"`
}
