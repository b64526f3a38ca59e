package sessions

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"codeberg.org/moodcanvas/server/api/rest/pagination"
	"codeberg.org/moodcanvas/server/internal/errors"
	"codeberg.org/moodcanvas/server/moodcanvas/sessions"
)

// CreateSessionHandler godoc
// @Summary Create a session
// @Tags sessions
// @Accept json
// @Produce json
// @Param request body CreateSessionRequest true "Session name"
// @Success 201 {object} SessionResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /api/v1/sessions [post]
func CreateSessionHandler(registry *sessions.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateSessionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		view, err := registry.CreateSession(req.Name)
		if err != nil {
			errors.Respond(c, err)
			return
		}

		c.JSON(http.StatusCreated, SessionResponse{Session: view})
	}
}

// lists live sessions, oldest first
func ListSessionsHandler(registry *sessions.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		params := pagination.FromQuery(c, defaultListLimit, maxListLimit)
		all := registry.ListSessions()

		c.JSON(http.StatusOK, ListSessionsResponse{
			Sessions:   pagination.Page(all, params),
			Pagination: pagination.NewMeta(params, len(all)),
		})
	}
}

func GetSessionHandler(registry *sessions.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, ok := errors.ValidatePathUUID(c, "id", "session")
		if !ok {
			return
		}

		view, err := registry.GetSession(sessionID)
		if err != nil {
			errors.Respond(c, err)
			return
		}

		c.JSON(http.StatusOK, SessionResponse{Session: view})
	}
}

// DeleteSessionHandler godoc
// @Summary Delete a session and disconnect its clients
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} DeleteSessionResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/v1/sessions/{id} [delete]
func DeleteSessionHandler(registry *sessions.Registry, sessionEnder SessionEnder) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, ok := errors.ValidatePathUUID(c, "id", "session")
		if !ok {
			return
		}

		if err := registry.DeleteSession(sessionID); err != nil {
			errors.Respond(c, err)
			return
		}

		if sessionEnder != nil {
			sessionEnder.EndSession(sessionID, "session deleted")
		}

		c.JSON(http.StatusOK, DeleteSessionResponse{Message: "session deleted"})
	}
}

// adds a participant without a websocket connection
func JoinSessionHandler(registry *sessions.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, ok := errors.ValidatePathUUID(c, "id", "session")
		if !ok {
			return
		}

		var req JoinSessionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		view, err := registry.JoinSession(sessionID, req.UserID)
		if err != nil {
			errors.Respond(c, err)
			return
		}

		c.JSON(http.StatusOK, SessionResponse{Session: view})
	}
}

func GetMoodHandler(registry *sessions.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, ok := errors.ValidatePathUUID(c, "id", "session")
		if !ok {
			return
		}

		state, err := registry.CurrentMood(sessionID, time.Now())
		if err != nil {
			errors.Respond(c, err)
			return
		}

		c.JSON(http.StatusOK, MoodResponse{SessionID: sessionID, Mood: state})
	}
}

// returns the most recent messages, oldest first
func ListMessagesHandler(registry *sessions.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, ok := errors.ValidatePathUUID(c, "id", "session")
		if !ok {
			return
		}

		limit := defaultMessagesLimit
		if l, ok := c.GetQuery("limit"); ok {
			if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= maxMessagesLimit {
				limit = parsed
			}
		}

		messages, err := registry.Messages(sessionID, limit)
		if err != nil {
			errors.Respond(c, err)
			return
		}

		c.JSON(http.StatusOK, MessagesResponse{Messages: messages})
	}
}

// toggles a reaction on a message of the session in the path
func ToggleReactionHandler(registry *sessions.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, ok := errors.ValidatePathUUID(c, "id", "session")
		if !ok {
			return
		}

		messageID, ok := errors.ValidatePathUUID(c, "message_id", "message")
		if !ok {
			return
		}

		var req ReactionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		owner, err := registry.MessageSession(messageID)
		if err == nil && owner != sessionID {
			err = sessions.ErrMessageNotFound
		}
		if err != nil {
			errors.Respond(c, err)
			return
		}

		msg, err := registry.ToggleReaction(messageID, req.Emoji, req.UserID)
		if err != nil {
			errors.Respond(c, err)
			return
		}

		c.JSON(http.StatusOK, MessageResponse{Message: msg})
	}
}

func GetCanvasHandler(registry *sessions.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, ok := errors.ValidatePathUUID(c, "id", "session")
		if !ok {
			return
		}

		view, err := registry.GetSession(sessionID)
		if err != nil {
			errors.Respond(c, err)
			return
		}

		c.JSON(http.StatusOK, CanvasResponse{
			SessionID:     view.ID,
			Canvas:        view.Canvas,
			HistoryIndex:  view.HistoryIndex,
			HistoryLength: view.HistoryLength,
			CanUndo:       view.CanUndo,
			CanRedo:       view.CanRedo,
			LastActivity:  view.LastActivity,
		})
	}
}
