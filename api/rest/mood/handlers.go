package mood

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"codeberg.org/moodcanvas/server/internal/errors"
	"codeberg.org/moodcanvas/server/internal/logger"
	"codeberg.org/moodcanvas/server/internal/mood"
	"codeberg.org/moodcanvas/server/moodcanvas/sessions"
)

// AnalyzeHandler godoc
// @Summary Classify the mood of a piece of text
// @Description Uses the configured classifier and falls back to the local heuristic when it is unavailable
// @Tags mood
// @Accept json
// @Produce json
// @Param request body AnalyzeRequest true "Text to classify"
// @Success 200 {object} AnalyzeResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/v1/mood/analyze [post]
func AnalyzeHandler(classifier sessions.Classifier, recorder MoodRecorder, timeout time.Duration) gin.HandlerFunc {
	if timeout <= 0 {
		timeout = sessions.DefaultClassifierTimeout
	}

	return func(c *gin.Context) {
		var req AnalyzeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		text := strings.TrimSpace(req.Text)
		if text == "" {
			errors.InvalidInput(c, "text is required", nil)
			return
		}

		activity, err := mood.ParseSource(req.Activity)
		if err != nil {
			errors.InvalidInput(c, "unknown activity", err)
			return
		}

		if req.SessionID != "" && !errors.IsValidUUID(req.SessionID) {
			errors.NotFound(c, "session")
			return
		}

		resp := verdict(c.Request.Context(), classifier, timeout, text)

		if req.SessionID != "" && recorder != nil {
			now := time.Now()
			sample := mood.Classification{Kind: resp.Kind, Intensity: resp.Intensity}.Sample(now, activity)

			if err := recorder.RecordMoodSample(req.SessionID, sample); err != nil {
				errors.Respond(c, err)
				return
			}

			state, err := recorder.CurrentMood(req.SessionID, now)
			if err != nil {
				errors.Respond(c, err)
				return
			}

			resp.SessionID = req.SessionID
			resp.Mood = &state
		}

		c.JSON(http.StatusOK, resp)
	}
}

// asks the classifier and falls back to the heuristic
func verdict(ctx context.Context, classifier sessions.Classifier, timeout time.Duration, text string) AnalyzeResponse {
	if classifier != nil {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		result, err := classifier.Classify(ctx, text)
		if err == nil && result != nil && result.Kind.Valid() {
			return AnalyzeResponse{
				Kind:      result.Kind,
				Intensity: mood.ClampIntensity(result.Intensity),
				Source:    SourceClassifier,
			}
		}

		logger.FromContext(ctx).Warn("classifier unavailable, using heuristic", "error", err)
	}

	result := mood.Classify(text)
	return AnalyzeResponse{
		Kind:      result.Kind,
		Intensity: result.Intensity,
		Source:    SourceHeuristic,
	}
}
