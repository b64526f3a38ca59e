package tui

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	restsessions "codeberg.org/moodcanvas/server/api/rest/sessions"
	apiws "codeberg.org/moodcanvas/server/api/websocket"
	ws "codeberg.org/moodcanvas/server/internal/websocket"
	"codeberg.org/moodcanvas/server/moodcanvas/sessions"
)

// runs the REST and websocket surfaces the TUI talks to
func startServer(t *testing.T) (string, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry := sessions.NewRegistry()
	t.Cleanup(registry.Close)

	hub := ws.NewHub()
	ws.RegisterSessionHandlers(hub, registry)
	go hub.Run()
	t.Cleanup(hub.Shutdown)

	router := gin.New()
	v1 := router.Group("/api/v1")
	restsessions.RegisterRoutes(v1, registry, hub)
	apiws.RegisterRoutes(v1, hub, ws.OriginPolicy{})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return srv.URL, "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws"
}

func nextMsg(t *testing.T, c *WSClient) tea.Msg {
	t.Helper()

	ch := make(chan tea.Msg, 1)
	go func() { ch <- c.WaitForEvent()() }()

	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a server event")
		return nil
	}
}

func nextEvent(t *testing.T, c *WSClient) ws.Message {
	t.Helper()

	msg := nextMsg(t, c)
	ev, ok := msg.(ServerEventMsg)
	require.True(t, ok, "got %T", msg)

	return ev.msg
}

func TestAPIClientCreatesAndListsSessions(t *testing.T) {
	apiURL, _ := startServer(t)
	api := NewAPIClient(apiURL + "/")
	ctx := context.Background()

	created, err := api.CreateSession(ctx, "retro")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "retro", created.Name)

	list, err := api.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
	assert.Equal(t, "neutral", list[0].Mood.Kind)

	_, err = api.CreateSession(ctx, "")
	assert.Error(t, err)
}

func TestWSClientJoinsAndChats(t *testing.T) {
	apiURL, wsEndpoint := startServer(t)

	created, err := NewAPIClient(apiURL).CreateSession(context.Background(), "retro")
	require.NoError(t, err)

	client := NewWSClient(wsEndpoint)
	require.NoError(t, client.Connect(created.ID, "alice"))
	t.Cleanup(client.Close)
	assert.Equal(t, uint64(1), client.Generation())

	first := nextEvent(t, client)
	require.Equal(t, ws.TypeSessionState, first.Type)

	require.NoError(t, client.Send(ws.TypeChat, ws.ChatPayload{Text: "hello"}))

	var seen []string
	for len(seen) == 0 || seen[len(seen)-1] != ws.TypeMoodUpdate {
		seen = append(seen, nextEvent(t, client).Type)
	}

	// participants_changed from the join may come first
	assert.Equal(t, []string{ws.TypeChatMessage, ws.TypeMoodUpdate}, seen[len(seen)-2:])
}

func TestWSClientCloseEndsStream(t *testing.T) {
	apiURL, wsEndpoint := startServer(t)

	created, err := NewAPIClient(apiURL).CreateSession(context.Background(), "retro")
	require.NoError(t, err)

	client := NewWSClient(wsEndpoint)
	require.NoError(t, client.Connect(created.ID, "alice"))
	client.Close()

	assert.Error(t, client.Send(ws.TypePing, nil))

	for {
		if _, ok := nextMsg(t, client).(WSDisconnectedMsg); ok {
			return
		}
	}
}
