package sessions

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/moodcanvas/server/internal/canvas"
	"codeberg.org/moodcanvas/server/internal/mood"
)

var epoch = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

// manually advanced time source shared by registry and sweeper tests
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: epoch}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestRegistry(t *testing.T, opts ...Option) (*Registry, *testClock) {
	t.Helper()

	clock := newTestClock()
	r := NewRegistry(append([]Option{WithClock(clock.Now)}, opts...)...)
	t.Cleanup(r.Close)

	return r, clock
}

func mustCreate(t *testing.T, r *Registry, name string) *View {
	t.Helper()

	v, err := r.CreateSession(name)
	require.NoError(t, err)

	return v
}

func drawing(id string) canvas.Snapshot {
	s := canvas.Empty()
	s.Strokes = append(s.Strokes, canvas.Stroke{ID: id, Points: []canvas.Point{{X: 1, Y: 2}}})
	return s
}

func TestCreateSession(t *testing.T) {
	r, clock := newTestRegistry(t)

	v := mustCreate(t, r, "  jam night  ")

	assert.NotEmpty(t, v.ID)
	assert.Equal(t, "jam night", v.Name)
	assert.Equal(t, clock.Now(), v.CreatedAt)
	assert.Equal(t, clock.Now(), v.LastActivity)
	assert.Empty(t, v.Participants)
	assert.Equal(t, canvas.Empty(), v.Canvas)
	assert.Equal(t, 1, v.HistoryLength)
	assert.Equal(t, 0, v.HistoryIndex)
	assert.False(t, v.CanUndo)
	assert.Equal(t, mood.State{Kind: mood.Neutral, Intensity: 50, Timestamp: clock.Now()}, v.Mood)
	assert.Equal(t, 0, v.MessageCount)
}

func TestCreateSessionGeneratesDistinctIDs(t *testing.T) {
	r, _ := newTestRegistry(t)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		v := mustCreate(t, r, "same name")
		assert.False(t, seen[v.ID])
		seen[v.ID] = true
	}

	assert.Equal(t, 50, r.Count())
}

func TestCreateSessionValidatesName(t *testing.T) {
	r, _ := newTestRegistry(t)

	_, err := r.CreateSession("   ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = r.CreateSession(strings.Repeat("x", MaxNameLength+1))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateSessionUniqueNames(t *testing.T) {
	r, _ := newTestRegistry(t, WithUniqueNames())

	mustCreate(t, r, "Jam")

	_, err := r.CreateSession("jam")
	assert.ErrorIs(t, err, ErrDuplicateName)

	mustCreate(t, r, "other jam")
}

func TestJoinSession(t *testing.T) {
	r, clock := newTestRegistry(t)
	created := mustCreate(t, r, "jam")

	clock.Advance(time.Minute)

	v, err := r.JoinSession(created.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, v.Participants)
	assert.Equal(t, clock.Now(), v.LastActivity)

	// idempotent
	v, err = r.JoinSession(created.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, v.Participants)

	v, err = r.JoinSession(created.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, v.Participants)
}

func TestJoinSessionErrors(t *testing.T) {
	r, _ := newTestRegistry(t)
	created := mustCreate(t, r, "jam")

	_, err := r.JoinSession("missing", "alice")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = r.JoinSession(created.ID, "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLeaveSessionKeepsEmptySession(t *testing.T) {
	r, _ := newTestRegistry(t)
	created := mustCreate(t, r, "jam")

	_, err := r.JoinSession(created.ID, "alice")
	require.NoError(t, err)
	_, err = r.JoinSession(created.ID, "bob")
	require.NoError(t, err)

	remaining, err := r.LeaveSession(created.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, remaining)

	remaining, err = r.LeaveSession(created.ID, "bob")
	require.NoError(t, err)
	assert.Empty(t, remaining)

	_, err = r.GetSession(created.ID)
	assert.NoError(t, err)
}

func TestCanvasOperations(t *testing.T) {
	r, clock := newTestRegistry(t)
	created := mustCreate(t, r, "jam")

	clock.Advance(time.Minute)

	current, err := r.PushCanvasSnapshot(created.ID, drawing("a"))
	require.NoError(t, err)
	assert.Equal(t, drawing("a"), current)

	_, err = r.PushCanvasSnapshot(created.ID, drawing("b"))
	require.NoError(t, err)

	v, err := r.GetSession(created.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, v.HistoryLength)
	assert.Equal(t, 2, v.HistoryIndex)
	assert.Equal(t, clock.Now(), v.LastActivity)

	undone, err := r.Undo(created.ID)
	require.NoError(t, err)
	assert.Equal(t, drawing("a"), undone)

	redone, err := r.Redo(created.ID)
	require.NoError(t, err)
	assert.Equal(t, drawing("b"), redone)

	// redo at the newest snapshot is a no-op
	redone, err = r.Redo(created.ID)
	require.NoError(t, err)
	assert.Equal(t, drawing("b"), redone)

	current, err = r.Canvas(created.ID)
	require.NoError(t, err)
	assert.Equal(t, drawing("b"), current)
}

func TestCanvasOperationErrors(t *testing.T) {
	r, _ := newTestRegistry(t)
	created := mustCreate(t, r, "jam")

	_, err := r.PushCanvasSnapshot("missing", drawing("a"))
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = r.PushCanvasSnapshot(created.ID, drawing(""))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = r.Undo("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRecordMoodSampleAndCurrentMood(t *testing.T) {
	r, clock := newTestRegistry(t)
	created := mustCreate(t, r, "jam")

	err := r.RecordMoodSample(created.ID, mood.Sample{Kind: mood.Calm, Intensity: 80, Timestamp: clock.Now()})
	require.NoError(t, err)

	state, err := r.CurrentMood(created.ID, clock.Now())
	require.NoError(t, err)
	assert.Equal(t, mood.Calm, state.Kind)
	assert.InDelta(t, 80, state.Intensity, 1e-9)

	err = r.RecordMoodSample(created.ID, mood.Sample{Kind: "furious", Intensity: 80, Timestamp: clock.Now()})
	assert.ErrorIs(t, err, ErrInvalidInput)

	err = r.RecordMoodSample("missing", mood.Sample{Kind: mood.Calm, Intensity: 80, Timestamp: clock.Now()})
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = r.CurrentMood("missing", clock.Now())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRecordMoodSampleAnnouncesMood(t *testing.T) {
	r, clock := newTestRegistry(t)
	created := mustCreate(t, r, "jam")

	var announced []mood.State
	r.OnMoodUpdate(func(sessionID string, state mood.State) {
		assert.Equal(t, created.ID, sessionID)
		announced = append(announced, state)
	})

	require.NoError(t, r.RecordMoodSample(created.ID, mood.Sample{Kind: mood.Chaotic, Intensity: 40, Timestamp: clock.Now()}))

	require.Len(t, announced, 1)
	assert.Equal(t, mood.Chaotic, announced[0].Kind)
	assert.InDelta(t, 40, announced[0].Intensity, 1e-9)
}

func TestRecordMoodSampleAppliesRetention(t *testing.T) {
	r, clock := newTestRegistry(t)
	created := mustCreate(t, r, "jam")

	for i := 0; i < mood.MaxSamples+20; i++ {
		err := r.RecordMoodSample(created.ID, mood.Sample{Kind: mood.Positive, Intensity: 60, Timestamp: clock.Now()})
		require.NoError(t, err)
	}

	record, err := r.Export(created.ID)
	require.NoError(t, err)
	assert.Len(t, record.Samples, mood.MaxSamples)
}

func TestDeleteSession(t *testing.T) {
	r, _ := newTestRegistry(t)
	created := mustCreate(t, r, "jam")

	var removed []string
	r.OnSessionRemoved(func(id string) { removed = append(removed, id) })

	require.NoError(t, r.DeleteSession(created.ID))
	assert.Equal(t, []string{created.ID}, removed)

	_, err := r.GetSession(created.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	assert.ErrorIs(t, r.DeleteSession(created.ID), ErrSessionNotFound)
	assert.Len(t, removed, 1)
}

func TestListSessionsOldestFirst(t *testing.T) {
	r, clock := newTestRegistry(t)

	first := mustCreate(t, r, "first")
	clock.Advance(time.Second)
	second := mustCreate(t, r, "second")

	views := r.ListSessions()
	require.Len(t, views, 2)
	assert.Equal(t, first.ID, views[0].ID)
	assert.Equal(t, second.ID, views[1].ID)
}

func TestDirtySessionsDrain(t *testing.T) {
	r, _ := newTestRegistry(t)
	created := mustCreate(t, r, "jam")

	assert.Equal(t, []string{created.ID}, r.DirtySessions())
	assert.Empty(t, r.DirtySessions())

	_, err := r.JoinSession(created.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{created.ID}, r.DirtySessions())

	// leaving does not change persisted state
	_, err = r.LeaveSession(created.ID, "alice")
	require.NoError(t, err)
	assert.Empty(t, r.DirtySessions())

	r.MarkDirty(created.ID)
	r.MarkDirty("missing")
	assert.Equal(t, []string{created.ID}, r.DirtySessions())
}

func TestExportRestoreRoundTrip(t *testing.T) {
	r, clock := newTestRegistry(t)
	created := mustCreate(t, r, "jam")

	_, err := r.PushCanvasSnapshot(created.ID, drawing("a"))
	require.NoError(t, err)

	res, err := r.AppendChat(t.Context(), created.ID, "alice", "this is great", "")
	require.NoError(t, err)

	_, err = r.ToggleReaction(res.Message.ID, "👍", "bob")
	require.NoError(t, err)

	record, err := r.Export(created.ID)
	require.NoError(t, err)

	other, _ := newTestRegistry(t)
	assert.Equal(t, 1, other.Restore([]*Record{record, nil, {}}))

	v, err := other.GetSession(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "jam", v.Name)
	assert.Equal(t, drawing("a"), v.Canvas)
	assert.Equal(t, 1, v.HistoryLength)
	assert.Empty(t, v.Participants)

	msgs, err := other.Messages(created.ID, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, map[string][]string{"👍": {"bob"}}, msgs[0].Reactions)

	state, err := other.CurrentMood(created.ID, clock.Now())
	require.NoError(t, err)
	assert.Equal(t, mood.Positive, state.Kind)

	// restored messages stay addressable for reactions
	_, err = other.ToggleReaction(res.Message.ID, "👍", "bob")
	require.NoError(t, err)

	// live sessions are never overwritten
	assert.Equal(t, 0, other.Restore([]*Record{record}))
}
