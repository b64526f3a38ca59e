package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(hub *Hub, id string) *Client {
	return NewClient(id, "", nil, hub)
}

// reads the next queued outbound message of a client
func nextMessage(t *testing.T, c *Client) *Message {
	t.Helper()

	select {
	case raw, ok := <-c.send:
		require.True(t, ok, "send channel closed")

		var msg Message
		require.NoError(t, json.Unmarshal(raw, &msg))
		return &msg
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for a message to %s", c.ID)
		return nil
	}
}

func assertNoMessage(t *testing.T, c *Client) {
	t.Helper()

	select {
	case raw, ok := <-c.send:
		if ok {
			t.Fatalf("unexpected message to %s: %s", c.ID, raw)
		}
	default:
	}
}

func decode[T any](t *testing.T, msg *Message) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(msg.Payload, &v))
	return v
}

func TestHubCreation(t *testing.T) {
	hub := NewHub()
	require.NotNil(t, hub)
	assert.NotNil(t, hub.Register)
	assert.NotNil(t, hub.Unregister)
	assert.NotNil(t, hub.Broadcast)
}

func TestHubRegisterAndUnregisterClient(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Shutdown()

	client := newTestClient(hub, "c1")
	hub.Register <- client

	assert.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.JoinSession(client, "s1", "alice")
	assert.Equal(t, 1, hub.GetClientCount("s1"))

	hub.Unregister <- client

	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, hub.GetClientCount("s1"))
	assert.Equal(t, 0, hub.GetSessionCount())
	assert.True(t, client.IsClosed())
}

func TestHubJoinSessionMovesGroups(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, "c1")

	assert.Empty(t, hub.JoinSession(client, "s1", "alice"))
	assert.Equal(t, 1, hub.GetClientCount("s1"))

	assert.Equal(t, "s1", hub.JoinSession(client, "s2", "alice"))
	assert.Equal(t, 0, hub.GetClientCount("s1"))
	assert.Equal(t, 1, hub.GetClientCount("s2"))
	assert.Equal(t, 1, hub.GetSessionCount())
	assert.Equal(t, "s2", client.SessionID())
}

func TestHubBroadcastToSession(t *testing.T) {
	hub := NewHub()
	a := newTestClient(hub, "a")
	b := newTestClient(hub, "b")
	other := newTestClient(hub, "other")

	hub.JoinSession(a, "s1", "alice")
	hub.JoinSession(b, "s1", "bob")
	hub.JoinSession(other, "s2", "carol")

	first, err := NewMessage(TypeChatMessage, "s1", "alice", ChatMessagePayload{Text: "one"})
	require.NoError(t, err)
	hub.BroadcastToSession("s1", first, "")

	second, err := NewMessage(TypeCanvasUpdate, "s1", "alice", CanvasUpdatePayload{})
	require.NoError(t, err)
	hub.BroadcastToSession("s1", second, "a")

	assert.Equal(t, uint64(1), nextMessage(t, a).Sequence)
	assertNoMessage(t, a)

	assert.Equal(t, uint64(1), nextMessage(t, b).Sequence)
	assert.Equal(t, uint64(2), nextMessage(t, b).Sequence)

	assertNoMessage(t, other)
}

func TestHubGetSessionClientsIsSorted(t *testing.T) {
	hub := NewHub()
	for _, id := range []string{"c", "a", "b"} {
		hub.JoinSession(newTestClient(hub, id), "s1", id)
	}

	clients := hub.GetSessionClients("s1")
	require.Len(t, clients, 3)
	assert.Equal(t, "a", clients[0].ID)
	assert.Equal(t, "c", clients[2].ID)

	assert.Empty(t, hub.GetSessionClients("missing"))
}

func TestHubDispatchRejectsUnjoinedClients(t *testing.T) {
	hub := NewHub()
	hub.RegisterHandler(TypeChat, func(*Hub, *Client, *Message) error {
		t.Fatal("handler must not run for an unjoined client")
		return nil
	})
	hub.RegisterHandler(TypePing, PingHandler())

	client := newTestClient(hub, "c1")

	hub.dispatch(client, &Message{Type: TypeChat, ClientID: "c1"})
	resp := nextMessage(t, client)
	assert.Equal(t, TypeError, resp.Type)
	assert.Equal(t, "not_joined", decode[map[string]string](t, resp)["error"])

	// ping needs no session
	hub.dispatch(client, &Message{Type: TypePing, ClientID: "c1"})
	assert.Equal(t, TypePong, nextMessage(t, client).Type)
}

func TestHubDispatchUnknownType(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, "c1")

	hub.dispatch(client, &Message{Type: "teleport", ClientID: "c1"})

	resp := nextMessage(t, client)
	assert.Equal(t, "bad_request", decode[map[string]string](t, resp)["error"])
}

func TestHubRoutesMessagesThroughClientWorker(t *testing.T) {
	hub := NewHub()
	hub.RegisterHandler(TypePing, PingHandler())
	go hub.Run()
	defer hub.Shutdown()

	client := newTestClient(hub, "c1")
	hub.Register <- client

	hub.Broadcast <- &Message{Type: TypePing, ClientID: "c1"}
	assert.Equal(t, TypePong, nextMessage(t, client).Type)
}

func TestHubConnectionLimits(t *testing.T) {
	hub := NewHub()

	for i := 0; i < maxConnectionsPerIP; i++ {
		ok, _ := hub.CanAcceptConnection("10.0.0.1")
		require.True(t, ok)
		hub.TrackIPConnection("10.0.0.1")
	}

	ok, reason := hub.CanAcceptConnection("10.0.0.1")
	assert.False(t, ok)
	assert.NotEmpty(t, reason)

	ok, _ = hub.CanAcceptConnection("10.0.0.2")
	assert.True(t, ok)

	hub.UntrackIPConnection("10.0.0.1")
	ok, _ = hub.CanAcceptConnection("10.0.0.1")
	assert.True(t, ok)
}

func TestHubEndSession(t *testing.T) {
	hub := NewHub()
	a := newTestClient(hub, "a")
	other := newTestClient(hub, "other")

	hub.JoinSession(a, "s1", "alice")
	hub.JoinSession(other, "s2", "bob")

	hub.EndSession("s1", "session expired due to inactivity")

	msg := nextMessage(t, a)
	assert.Equal(t, TypeSessionEnded, msg.Type)
	assert.Equal(t, "session expired due to inactivity", decode[SessionEndedPayload](t, msg).Reason)

	assert.True(t, a.IsClosed())
	assert.Empty(t, a.SessionID())
	assert.Equal(t, 0, hub.GetClientCount("s1"))

	assert.False(t, other.IsClosed())
	assertNoMessage(t, other)

	// ending an unknown session is a no-op
	hub.EndSession("missing", "gone")
}

func TestHubShutdownNotifiesClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := newTestClient(hub, "c1")
	hub.Register <- client

	hub.Shutdown()

	assert.Equal(t, TypeServerShutdown, nextMessage(t, client).Type)
	assert.True(t, client.IsClosed())
	assert.Equal(t, 0, hub.ClientCount())

	// a second shutdown is harmless
	hub.Shutdown()
}
