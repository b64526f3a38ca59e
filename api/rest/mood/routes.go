package mood

import (
	"time"

	"github.com/gin-gonic/gin"

	"codeberg.org/moodcanvas/server/moodcanvas/sessions"
)

// classifier may be nil, in which case only the local heuristic answers
func RegisterRoutes(router *gin.RouterGroup, classifier sessions.Classifier, recorder MoodRecorder, timeout time.Duration) {
	router.POST("/mood/analyze", AnalyzeHandler(classifier, recorder, timeout))
}
