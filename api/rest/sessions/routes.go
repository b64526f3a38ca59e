package sessions

import (
	"github.com/gin-gonic/gin"

	"codeberg.org/moodcanvas/server/moodcanvas/sessions"
)

func RegisterRoutes(router *gin.RouterGroup, registry *sessions.Registry, sessionEnder SessionEnder) {
	router.POST("/sessions", CreateSessionHandler(registry))
	router.GET("/sessions", ListSessionsHandler(registry))
	router.GET("/sessions/:id", GetSessionHandler(registry))
	router.DELETE("/sessions/:id", DeleteSessionHandler(registry, sessionEnder))
	router.POST("/sessions/:id/join", JoinSessionHandler(registry))
	router.GET("/sessions/:id/mood", GetMoodHandler(registry))
	router.GET("/sessions/:id/messages", ListMessagesHandler(registry))
	router.POST("/sessions/:id/messages/:message_id/reactions", ToggleReactionHandler(registry))
	router.GET("/sessions/:id/canvas", GetCanvasHandler(registry))
}
