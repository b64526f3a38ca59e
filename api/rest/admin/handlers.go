package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"codeberg.org/moodcanvas/server/internal/errors"
	"codeberg.org/moodcanvas/server/internal/logger"
)

// TriggerSweepHandler godoc
// @Summary Run a cleanup sweep now
// @Description Waits for any running sweep, then sweeps every session and returns the stats
// @Tags admin
// @Produce json
// @Success 200 {object} SweepResponse
// @Router /api/v1/admin/sweep [post]
func TriggerSweepHandler(sweeper Sweeper) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := sweeper.Sweep(c.Request.Context())

		logger.Info("manual sweep completed",
			"evicted", stats.InactiveSessionsEvicted,
			"samples_removed", stats.MoodSamplesRemoved,
			"skipped", stats.SessionsSkipped,
		)

		c.JSON(http.StatusOK, SweepResponse{Stats: stats})
	}
}

// returns the stats of the most recent sweep, or 404 before the first one
func LastSweepHandler(sweeper Sweeper) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, ok := sweeper.LastStats()
		if !ok {
			errors.NotFound(c, "sweep stats")
			return
		}

		c.JSON(http.StatusOK, SweepResponse{Stats: stats})
	}
}
