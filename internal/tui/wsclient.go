package tui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"

	ws "codeberg.org/moodcanvas/server/internal/websocket"
)

// creates a new websocket client for endpoint (e.g. ws://localhost:8080/api/v1/ws)
func NewWSClient(endpoint string) *WSClient {
	return &WSClient{endpoint: endpoint}
}

// dials the gateway and joins sessionID as userID in the same request
func (c *WSClient) Connect(sessionID, userID string) error {
	c.Close()

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint: %w", err)
	}

	q := u.Query()
	q.Set("session_id", sessionID)
	q.Set("user_id", userID)
	u.RawQuery = q.Encode()

	conn, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("failed to connect: %s", resp.Status)
		}
		return fmt.Errorf("failed to connect: %w", err)
	}

	events := make(chan ws.Message, eventQueueSize)
	done := make(chan struct{})

	c.mu.Lock()
	c.conn = conn
	c.events = events
	c.done = done
	c.gen++
	c.mu.Unlock()

	go c.readPump(conn, events, done)

	return nil
}

// reads frames until the connection fails. The server may batch several
// messages into one frame separated by newlines.
func (c *WSClient) readPump(conn *websocket.Conn, events chan<- ws.Message, done <-chan struct{}) {
	defer close(events)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		for _, line := range bytes.Split(data, []byte{'\n'}) {
			if len(bytes.TrimSpace(line)) == 0 {
				continue
			}

			var msg ws.Message
			if err := json.Unmarshal(line, &msg); err != nil {
				continue
			}

			select {
			case events <- msg:
			case <-done:
				return
			}
		}
	}
}

// sends one message; the server fills in session and user
func (c *WSClient) Send(msgType string, payload any) error {
	msg, err := ws.NewMessage(msgType, "", "", payload)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return fmt.Errorf("not connected")
	}

	c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck,gosec
	return c.conn.WriteJSON(msg)
}

// closes the connection; the read pump then ends the event stream
func (c *WSClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		close(c.done)
		c.conn.Close() //nolint:errcheck,gosec
		c.conn = nil
	}
}

// identifies the current connection; bumped by every Connect
func (c *WSClient) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.gen
}

// returns a tea.Cmd that connects and reports the outcome
func (c *WSClient) ConnectCmd(sessionID, userID string) tea.Cmd {
	return func() tea.Msg {
		if err := c.Connect(sessionID, userID); err != nil {
			return WSConnectErrorMsg{err: err}
		}

		return WSConnectedMsg{sessionID: sessionID}
	}
}

// returns a tea.Cmd that blocks for the next server message
func (c *WSClient) WaitForEvent() tea.Cmd {
	c.mu.Lock()
	events, gen := c.events, c.gen
	c.mu.Unlock()

	return func() tea.Msg {
		if events == nil {
			return WSDisconnectedMsg{gen: gen}
		}

		msg, ok := <-events
		if !ok {
			return WSDisconnectedMsg{gen: gen}
		}

		return ServerEventMsg{gen: gen, msg: msg}
	}
}
