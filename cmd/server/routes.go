package main

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"codeberg.org/moodcanvas/server/api/rest/admin"
	"codeberg.org/moodcanvas/server/api/rest/health"
	restmood "codeberg.org/moodcanvas/server/api/rest/mood"
	restsessions "codeberg.org/moodcanvas/server/api/rest/sessions"
	"codeberg.org/moodcanvas/server/api/websocket"
	ws "codeberg.org/moodcanvas/server/internal/websocket"
)

// sets up all API routes and middleware
func RegisterRoutes(router *gin.Engine, server *Server) error {
	rateLimit, err := RateLimitMiddleware(server.config, server)
	if err != nil {
		return fmt.Errorf("failed to configure rate limiter: %w", err)
	}

	router.Use(CORSMiddleware(server.config))
	router.GET("/health", health.Handler(health.Source{
		Sessions:    server.registry,
		Connections: server.hub,
		Sweeps:      server.cleanupService,
	}))

	v1 := router.Group("/api/v1")
	v1.Use(rateLimit)

	{
		v1.GET("/ping", health.PingHandler)

		restsessions.RegisterRoutes(v1, server.registry, server.hub)
		restmood.RegisterRoutes(v1, server.classifier, server.registry, server.config.ClassifierTimeout)
		admin.RegisterRoutes(v1, server.cleanupService)
		websocket.RegisterRoutes(v1, server.hub, ws.OriginPolicy{
			Production: server.config.IsProduction(),
			Allowed:    server.config.AllowedOrigins,
		})
	}

	return nil
}
