package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/moodcanvas/server/internal/canvas"
	"codeberg.org/moodcanvas/server/internal/errors"
	ws "codeberg.org/moodcanvas/server/internal/websocket"
)

type sent struct {
	msgType string
	payload any
}

type recorder struct {
	sent []sent
}

func (r *recorder) send(msgType string, payload any) error {
	r.sent = append(r.sent, sent{msgType, payload})
	return nil
}

func event(t *testing.T, msgType string, payload any) ServerEventMsg {
	t.Helper()

	msg, err := ws.NewMessage(msgType, "s1", "bob", payload)
	require.NoError(t, err)

	return ServerEventMsg{msg: *msg}
}

func enter(m *SessionModel, line string, r *recorder) tea.Cmd {
	m.input.SetValue(line)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter}, r.send)
	return cmd
}

func joinedModel(t *testing.T) *SessionModel {
	t.Helper()

	m := NewSessionModel("s1", "alice", 80, 24)
	m.Update(event(t, ws.TypeSessionState, ws.SessionStatePayload{
		SessionID:    "s1",
		Name:         "standup",
		Canvas:       canvas.Empty(),
		Mood:         ws.MoodUpdatePayload{Kind: "neutral", Intensity: 50},
		Participants: []string{"alice", "bob"},
		ChatHistory: []ws.ChatMessagePayload{
			{ID: "m1", UserID: "bob", Text: "morning", Timestamp: 1700000000000},
		},
	}), nil)

	return m
}

func TestSessionStateFillsScreen(t *testing.T) {
	m := joinedModel(t)

	assert.Equal(t, "standup", m.name)
	assert.Equal(t, []string{"alice", "bob"}, m.participants)
	assert.Equal(t, "neutral", m.mood.Kind)
	require.Len(t, m.lines, 1)
	assert.Equal(t, "m1", m.lines[0].id)
	assert.Contains(t, m.View(), "standup")
}

func TestEventsUpdateScreen(t *testing.T) {
	m := joinedModel(t)

	m.Update(event(t, ws.TypeChatMessage, ws.ChatMessagePayload{ID: "m2", UserID: "bob", Text: "great work"}), nil)
	m.Update(event(t, ws.TypeMoodUpdate, ws.MoodUpdatePayload{Kind: "positive", Intensity: 70}), nil)
	m.Update(event(t, ws.TypeReactionUpdated, ws.ReactionUpdatedPayload{
		MessageID: "m2",
		Reactions: map[string][]string{"👍": {"alice"}},
	}), nil)
	m.Update(event(t, ws.TypeParticipantsChanged, ws.ParticipantsChangedPayload{UserID: "bob", Participants: []string{"alice"}}), nil)

	snapshot := canvas.Empty()
	snapshot.Strokes = append(snapshot.Strokes, canvas.Stroke{ID: "s1"})
	m.Update(event(t, ws.TypeCanvasUpdate, ws.CanvasUpdatePayload{Elements: snapshot}), nil)

	require.Len(t, m.lines, 2)
	assert.Equal(t, []string{"alice"}, m.lines[1].reactions["👍"])
	assert.Equal(t, "positive", m.mood.Kind)
	assert.Equal(t, 70.0, m.mood.Intensity)
	assert.Equal(t, []string{"alice"}, m.participants)
	assert.Equal(t, 1, m.elements)
	assert.Equal(t, "canvas changed by bob", m.status)
}

func TestErrorAndSessionEnded(t *testing.T) {
	m := joinedModel(t)

	m.Update(event(t, ws.TypeError, errors.ErrorResponse{Error: "too_many_requests", Message: "slow down"}), nil)
	assert.Equal(t, "too_many_requests: slow down", m.status)

	m.Update(event(t, ws.TypeSessionEnded, ws.SessionEndedPayload{Reason: "inactive"}), nil)
	assert.True(t, m.ended)
	assert.Equal(t, "session ended: inactive", m.status)

	// nothing is sent once the session is over
	r := &recorder{}
	enter(m, "anyone there?", r)
	assert.Empty(t, r.sent)
}

func TestSubmitRoutesInput(t *testing.T) {
	m := joinedModel(t)
	r := &recorder{}

	enter(m, "hello all", r)
	enter(m, "/undo", r)
	enter(m, "/redo", r)
	enter(m, "/react 1 👍", r)

	require.Len(t, r.sent, 4)
	assert.Equal(t, sent{ws.TypeChat, ws.ChatPayload{Text: "hello all"}}, r.sent[0])
	assert.Equal(t, ws.TypeUndo, r.sent[1].msgType)
	assert.Nil(t, r.sent[1].payload)
	assert.Equal(t, ws.TypeRedo, r.sent[2].msgType)
	assert.Equal(t, sent{ws.TypeReaction, ws.ReactionPayload{MessageID: "m1", Emoji: "👍"}}, r.sent[3])
	assert.Empty(t, m.input.Value())
}

func TestSubmitRejectsBadCommands(t *testing.T) {
	m := joinedModel(t)
	r := &recorder{}

	enter(m, "/react 9 👍", r)
	assert.Equal(t, "no message numbered 9", m.status)

	enter(m, "/react 1", r)
	assert.Equal(t, "usage: /react <n> <emoji>", m.status)

	enter(m, "/dance", r)
	assert.Equal(t, "unknown command: /dance", m.status)

	assert.Empty(t, r.sent)
}

func TestLeaveCommand(t *testing.T) {
	m := joinedModel(t)

	cmd := enter(m, "/leave", &recorder{})
	require.NotNil(t, cmd)
	assert.Equal(t, LeaveSessionMsg{}, cmd())
}
