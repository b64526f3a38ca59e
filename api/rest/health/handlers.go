package health

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	serviceName = "moodcanvas"
	version     = "1.0.0"
)

// returns the server health status with live counts and the last sweep
func Handler(src Source) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := Response{
			Status:  "healthy",
			Service: serviceName,
			Version: version,
		}

		if src.Sessions != nil {
			resp.Sessions = src.Sessions.Count()
		}

		if src.Connections != nil {
			resp.Connections = src.Connections.ClientCount()
		}

		if src.Sweeps != nil {
			if stats, ok := src.Sweeps.LastStats(); ok {
				resp.LastSweep = &stats
			}
		}

		c.JSON(http.StatusOK, resp)
	}
}

// responds with pong for testing
func PingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, PingResponse{Message: "pong"})
}
