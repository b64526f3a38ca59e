package sessions

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/moodcanvas/server/internal/mood"
)

type stubClassifier struct {
	result  *mood.Classification
	err     error
	release chan struct{}
}

func (c *stubClassifier) Classify(ctx context.Context, _ string) (*mood.Classification, error) {
	if c.release != nil {
		select {
		case <-c.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return c.result, c.err
}

type moodEvent struct {
	sessionID string
	state     mood.State
}

func captureMood(r *Registry) <-chan moodEvent {
	ch := make(chan moodEvent, 8)
	r.OnMoodUpdate(func(id string, state mood.State) {
		ch <- moodEvent{sessionID: id, state: state}
	})
	return ch
}

func TestAppendChatWithoutClassifier(t *testing.T) {
	r, clock := newTestRegistry(t)
	created := mustCreate(t, r, "jam")

	clock.Advance(time.Minute)

	res, err := r.AppendChat(t.Context(), created.ID, "alice", "  hello  ", "")
	require.NoError(t, err)

	assert.NotEmpty(t, res.Message.ID)
	assert.Equal(t, created.ID, res.Message.SessionID)
	assert.Equal(t, "alice", res.Message.UserID)
	assert.Equal(t, "hello", res.Message.Text)
	assert.Equal(t, clock.Now(), res.Message.Timestamp)
	assert.Empty(t, res.Message.Reactions)
	assert.Equal(t, mood.State{Kind: mood.Neutral, Intensity: 50, Timestamp: clock.Now()}, res.Mood)

	v, err := r.GetSession(created.ID)
	require.NoError(t, err)
	assert.Equal(t, clock.Now(), v.LastActivity)
	assert.Equal(t, 1, v.MessageCount)

	record, err := r.Export(created.ID)
	require.NoError(t, err)
	require.Len(t, record.Samples, 1)
	assert.Equal(t, res.Message.ID, record.Samples[0].MessageID)
	assert.Equal(t, mood.SourceChat, record.Samples[0].Source)
}

func TestAppendChatValidation(t *testing.T) {
	r, _ := newTestRegistry(t)
	created := mustCreate(t, r, "jam")

	tests := []struct {
		name    string
		session string
		user    string
		text    string
		replyTo string
		want    error
	}{
		{"unknown session", "missing", "alice", "hi", "", ErrSessionNotFound},
		{"blank text", created.ID, "alice", "   ", "", ErrInvalidInput},
		{"too long", created.ID, "alice", strings.Repeat("a", MaxMessageLength+1), "", ErrInvalidInput},
		{"missing user", created.ID, "", "hi", "", ErrInvalidInput},
		{"unknown reply target", created.ID, "alice", "hi", "nope", ErrMessageNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.AppendChat(t.Context(), tt.session, tt.user, tt.text, tt.replyTo)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAppendChatReplies(t *testing.T) {
	r, _ := newTestRegistry(t)
	first := mustCreate(t, r, "first")
	second := mustCreate(t, r, "second")

	parent, err := r.AppendChat(t.Context(), first.ID, "alice", "hi", "")
	require.NoError(t, err)

	reply, err := r.AppendChat(t.Context(), first.ID, "bob", "hey", parent.Message.ID)
	require.NoError(t, err)
	assert.Equal(t, parent.Message.ID, reply.Message.ReplyTo)

	// a message from another session is not a valid target
	_, err = r.AppendChat(t.Context(), second.ID, "bob", "hey", parent.Message.ID)
	assert.ErrorIs(t, err, ErrMessageNotFound)
}

func TestChatHistoryIsCapped(t *testing.T) {
	r, _ := newTestRegistry(t, WithChatHistoryLimit(3))
	created := mustCreate(t, r, "jam")

	var ids []string
	for i := 0; i < 5; i++ {
		res, err := r.AppendChat(t.Context(), created.ID, "alice", "message", "")
		require.NoError(t, err)
		ids = append(ids, res.Message.ID)
	}

	msgs, err := r.Messages(created.ID, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, ids[2], msgs[0].ID)
	assert.Equal(t, ids[4], msgs[2].ID)

	latest, err := r.Messages(created.ID, 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, ids[3], latest[0].ID)

	// dropped messages can no longer be referenced
	_, err = r.ToggleReaction(ids[0], "👍", "bob")
	assert.ErrorIs(t, err, ErrMessageNotFound)
}

func TestToggleReaction(t *testing.T) {
	r, _ := newTestRegistry(t)
	created := mustCreate(t, r, "jam")

	res, err := r.AppendChat(t.Context(), created.ID, "alice", "hi", "")
	require.NoError(t, err)
	id := res.Message.ID

	msg, err := r.ToggleReaction(id, "🔥", "bob")
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"🔥": {"bob"}}, msg.Reactions)

	msg, err = r.ToggleReaction(id, "🔥", "alice")
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"🔥": {"alice", "bob"}}, msg.Reactions)

	_, err = r.ToggleReaction(id, "🔥", "alice")
	require.NoError(t, err)

	// removing the last user prunes the bucket
	msg, err = r.ToggleReaction(id, "🔥", "bob")
	require.NoError(t, err)
	assert.Empty(t, msg.Reactions)

	_, err = r.ToggleReaction("missing", "🔥", "bob")
	assert.ErrorIs(t, err, ErrMessageNotFound)

	_, err = r.ToggleReaction(id, " ", "bob")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = r.ToggleReaction(id, "🔥", "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	owner, err := r.MessageSession(id)
	require.NoError(t, err)
	assert.Equal(t, created.ID, owner)

	_, err = r.MessageSession("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAppendChatWithClassifier(t *testing.T) {
	classifier := &stubClassifier{result: &mood.Classification{Kind: mood.Energetic, Intensity: 80}}
	r, clock := newTestRegistry(t, WithClassifier(classifier, time.Second))
	created := mustCreate(t, r, "jam")
	updates := captureMood(r)

	res, err := r.AppendChat(t.Context(), created.ID, "alice", "hello", "")
	require.NoError(t, err)

	// the immediate answer uses the provisional heuristic sample
	assert.Equal(t, mood.Neutral, res.Mood.Kind)

	r.Wait()

	select {
	case ev := <-updates:
		assert.Equal(t, created.ID, ev.sessionID)
		assert.Equal(t, mood.Energetic, ev.state.Kind)
		assert.InDelta(t, 80, ev.state.Intensity, 1e-9)
		assert.Equal(t, clock.Now(), ev.state.Timestamp)
	case <-time.After(time.Second):
		t.Fatal("expected a mood update")
	}

	// only the classifier verdict is stored
	record, err := r.Export(created.ID)
	require.NoError(t, err)
	require.Len(t, record.Samples, 1)
	assert.Equal(t, mood.Energetic, record.Samples[0].Kind)
}

func TestAppendChatAfterCloseSkipsClassifier(t *testing.T) {
	classifier := &stubClassifier{result: &mood.Classification{Kind: mood.Energetic, Intensity: 80}, release: make(chan struct{})}
	r, _ := newTestRegistry(t, WithClassifier(classifier, time.Second))
	created := mustCreate(t, r, "jam")

	r.Close()

	_, err := r.AppendChat(t.Context(), created.ID, "alice", "hello", "")
	require.NoError(t, err)

	// stored right away with the heuristic; nothing is left waiting on release
	record, err := r.Export(created.ID)
	require.NoError(t, err)
	require.Len(t, record.Samples, 1)
	assert.Equal(t, mood.Neutral, record.Samples[0].Kind)

	r.Wait()
}

func TestAppendChatClassifierFailureFallsBackToHeuristic(t *testing.T) {
	classifier := &stubClassifier{err: errors.New("upstream down")}
	r, _ := newTestRegistry(t, WithClassifier(classifier, time.Second))
	created := mustCreate(t, r, "jam")
	updates := captureMood(r)

	_, err := r.AppendChat(t.Context(), created.ID, "alice", "this is great", "")
	require.NoError(t, err)

	r.Wait()

	select {
	case ev := <-updates:
		assert.Equal(t, mood.Positive, ev.state.Kind)
	case <-time.After(time.Second):
		t.Fatal("expected a mood update")
	}

	record, err := r.Export(created.ID)
	require.NoError(t, err)
	require.Len(t, record.Samples, 1)
	assert.Equal(t, mood.Positive, record.Samples[0].Kind)
}

func TestAppendChatIgnoresInvalidClassifierVerdict(t *testing.T) {
	classifier := &stubClassifier{result: &mood.Classification{Kind: "ecstatic", Intensity: 90}}
	r, _ := newTestRegistry(t, WithClassifier(classifier, time.Second))
	created := mustCreate(t, r, "jam")

	_, err := r.AppendChat(t.Context(), created.ID, "alice", "hello", "")
	require.NoError(t, err)

	r.Wait()

	record, err := r.Export(created.ID)
	require.NoError(t, err)
	require.Len(t, record.Samples, 1)
	assert.Equal(t, mood.Neutral, record.Samples[0].Kind)
}

func TestLateClassificationForDeletedSessionIsDropped(t *testing.T) {
	classifier := &stubClassifier{
		result:  &mood.Classification{Kind: mood.Chaotic, Intensity: 90},
		release: make(chan struct{}),
	}
	r, _ := newTestRegistry(t, WithClassifier(classifier, time.Minute))
	created := mustCreate(t, r, "jam")
	updates := captureMood(r)

	_, err := r.AppendChat(t.Context(), created.ID, "alice", "hello", "")
	require.NoError(t, err)

	record, err := r.Export(created.ID)
	require.NoError(t, err)

	require.NoError(t, r.DeleteSession(created.ID))

	// same id comes back before the classifier answers
	require.Equal(t, 1, r.Restore([]*Record{record}))

	close(classifier.release)
	r.Wait()

	select {
	case ev := <-updates:
		t.Fatalf("unexpected mood update for %s", ev.sessionID)
	default:
	}

	restored, err := r.Export(created.ID)
	require.NoError(t, err)
	assert.Empty(t, restored.Samples)
}

func TestClassifierTimeoutFallsBackToHeuristic(t *testing.T) {
	classifier := &stubClassifier{
		result:  &mood.Classification{Kind: mood.Chaotic, Intensity: 90},
		release: make(chan struct{}),
	}
	r, _ := newTestRegistry(t, WithClassifier(classifier, 20*time.Millisecond))
	created := mustCreate(t, r, "jam")

	_, err := r.AppendChat(t.Context(), created.ID, "alice", "hello", "")
	require.NoError(t, err)

	r.Wait()

	record, err := r.Export(created.ID)
	require.NoError(t, err)
	require.Len(t, record.Samples, 1)
	assert.Equal(t, mood.Neutral, record.Samples[0].Kind)
}
