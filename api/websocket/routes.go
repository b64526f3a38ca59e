package websocket

import (
	"github.com/gin-gonic/gin"

	ws "codeberg.org/moodcanvas/server/internal/websocket"
)

func RegisterRoutes(router *gin.RouterGroup, hub *ws.Hub, origins ws.OriginPolicy) {
	router.GET("/ws", WebSocketHandler(hub, origins))
}
