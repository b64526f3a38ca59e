package websocket

import (
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"codeberg.org/moodcanvas/server/internal/errors"
	"codeberg.org/moodcanvas/server/internal/logger"
	ws "codeberg.org/moodcanvas/server/internal/websocket"
)

// upgrades the request to a websocket connection registered with the hub.
// The connection starts unjoined unless session_id and user_id are given.
func WebSocketHandler(hub *ws.Hub, origins ws.OriginPolicy) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     origins.Check,
	}

	return func(c *gin.Context) {
		var params ConnectParams
		if err := c.ShouldBindQuery(&params); err != nil {
			errors.BadRequest(c, "invalid parameters", err)
			return
		}

		// check connection limits before accepting new connection
		ipAddress := c.ClientIP()
		canAccept, reason := hub.CanAcceptConnection(ipAddress)

		if !canAccept {
			errors.TooManyRequests(c, reason)
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.ErrorErr(err, "failed to upgrade connection",
				"ip", ipAddress,
			)

			return
		}

		// track IP connection only after successful upgrade
		hub.TrackIPConnection(ipAddress)

		var first *ws.Message
		if params.SessionID != "" && params.UserID != "" {
			first = &ws.Message{
				Type:      ws.TypeJoin,
				SessionID: params.SessionID,
				UserID:    params.UserID,
			}
		}

		client, err := hub.Attach(conn, ipAddress, first)
		if err != nil {
			hub.UntrackIPConnection(ipAddress)
			logger.ErrorErr(err, "failed to attach websocket client",
				"ip", ipAddress,
			)
			conn.Close() //nolint:errcheck,gosec // G104: abandoning the connection
			return
		}

		logger.Info("websocket connection established",
			"client_id", client.ID,
			"session_id", params.SessionID,
			"user_id", params.UserID,
			"ip", ipAddress,
		)
	}
}
