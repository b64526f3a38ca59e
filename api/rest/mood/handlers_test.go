package mood

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/moodcanvas/server/internal/mood"
	"codeberg.org/moodcanvas/server/moodcanvas/sessions"
)

type stubClassifier struct {
	result *mood.Classification
	err    error
}

func (s stubClassifier) Classify(context.Context, string) (*mood.Classification, error) {
	return s.result, s.err
}

func analyze(t *testing.T, classifier sessions.Classifier, body string) *httptest.ResponseRecorder {
	t.Helper()
	return analyzeInto(t, classifier, nil, body)
}

func analyzeInto(t *testing.T, classifier sessions.Classifier, recorder MoodRecorder, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	RegisterRoutes(router.Group("/api/v1"), classifier, recorder, time.Second)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/mood/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name       string
		classifier sessions.Classifier
		kind       mood.Kind
		intensity  float64
		source     string
	}{
		{
			name:   "heuristic without classifier",
			kind:   mood.Positive,
			source: SourceHeuristic,
		},
		{
			name:       "classifier verdict",
			classifier: stubClassifier{result: &mood.Classification{Kind: mood.Calm, Intensity: 140}},
			kind:       mood.Calm,
			intensity:  100,
			source:     SourceClassifier,
		},
		{
			name:       "classifier failure falls back",
			classifier: stubClassifier{err: errors.New("upstream down")},
			kind:       mood.Positive,
			source:     SourceHeuristic,
		},
		{
			name:       "unknown kind falls back",
			classifier: stubClassifier{result: &mood.Classification{Kind: "ecstatic", Intensity: 10}},
			kind:       mood.Positive,
			source:     SourceHeuristic,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := analyze(t, tt.classifier, `{"text":"this is great, I love it"}`)
			require.Equal(t, http.StatusOK, w.Code)

			var resp AnalyzeResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

			assert.Equal(t, tt.kind, resp.Kind)
			assert.Equal(t, tt.source, resp.Source)
			if tt.intensity > 0 {
				assert.Equal(t, tt.intensity, resp.Intensity)
			}
		})
	}
}

func TestAnalyzeRejectsEmptyText(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, analyze(t, nil, `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, analyze(t, nil, `{"text":"   "}`).Code)
}

func TestAnalyzeRecordsIntoSession(t *testing.T) {
	registry := sessions.NewRegistry()
	t.Cleanup(registry.Close)

	view, err := registry.CreateSession("jam")
	require.NoError(t, err)

	var announced []mood.State
	registry.OnMoodUpdate(func(_ string, state mood.State) { announced = append(announced, state) })

	classifier := stubClassifier{result: &mood.Classification{Kind: mood.Energetic, Intensity: 90}}
	w := analyzeInto(t, classifier, registry, `{"text":"let's go","session_id":"`+view.ID+`","activity":"drawing"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, view.ID, resp.SessionID)
	require.NotNil(t, resp.Mood)
	assert.Equal(t, mood.Energetic, resp.Mood.Kind)
	assert.InDelta(t, 90, resp.Mood.Intensity, 1e-9)

	record, err := registry.Export(view.ID)
	require.NoError(t, err)
	require.Len(t, record.Samples, 1)
	assert.Equal(t, mood.SourceDrawing, record.Samples[0].Source)
	assert.Len(t, announced, 1)
}

func TestAnalyzeSessionErrors(t *testing.T) {
	registry := sessions.NewRegistry()
	t.Cleanup(registry.Close)

	w := analyzeInto(t, nil, registry, `{"text":"hi","session_id":"3f2b8c1e-5a4d-4e6f-9a7b-1c2d3e4f5a6b"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = analyzeInto(t, nil, registry, `{"text":"hi","session_id":"bogus"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = analyzeInto(t, nil, registry, `{"text":"hi","activity":"dancing"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
