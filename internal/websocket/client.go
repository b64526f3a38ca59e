package websocket

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"codeberg.org/moodcanvas/server/internal/errors"
	"codeberg.org/moodcanvas/server/internal/logger"
)

// creates a new websocket client connection; it joins no session until it
// sends a join message
func NewClient(id, ipAddress string, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		ID:                     id,
		IPAddress:              ipAddress,
		conn:                   conn,
		hub:                    hub,
		send:                   make(chan []byte, 256),
		inbound:                make(chan *Message, inboundQueueSize),
		done:                   make(chan struct{}),
		canvasUpdateTimestamps: make([]time.Time, 0, maxCanvasUpdatesPerSecond),
		chatMessageTimestamps:  make([]time.Time, 0, maxChatMessagesPerMinute),
	}
}

// returns the joined session id, or "" before the first join
func (c *Client) SessionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionID
}

func (c *Client) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

func (c *Client) setSession(sessionID, userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionID = sessionID
	c.userID = userID
}

// reads messages from the websocket connection to the hub for processing
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister <- c
		c.conn.Close() //nolint:errcheck,gosec // G104: defer cleanup
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck,gosec // G104: websocket setup
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck,gosec // G104: pong handler
		return nil
	})

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket error",
					"client_id", c.ID,
					"session_id", c.SessionID(),
					"error", err,
				)
			}

			break
		}

		var msg Message
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			logger.Debug("failed to unmarshal message",
				"client_id", c.ID,
				"error", err,
			)

			c.SendError(errors.CodeBadRequest, "invalid message format", err.Error())
			continue
		}

		c.stamp(&msg)

		// forward to hub for processing
		c.hub.Broadcast <- &msg
	}
}

// fills in the server-side envelope fields. Session and user are left to
// dispatch, since a join queued ahead of msg may still change them.
func (c *Client) stamp(msg *Message) {
	msg.ClientID = c.ID
	msg.Timestamp = time.Now()
	msg.Sequence = 0
}

// writes messages from the hub to the websocket connection for sending to the client
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.conn.Close() //nolint:errcheck,gosec // G104: defer cleanup
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck,gosec // G104: websocket timing

			if !ok {
				// hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck,gosec // G104: close message
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}

			w.Write(message) //nolint:errcheck,gosec // G104: websocket write

			// add queued messages to the current websocket message
			n := len(c.send)

			for range n {
				w.Write([]byte{'\n'}) //nolint:errcheck,gosec // G104: websocket write
				w.Write(<-c.send)     //nolint:errcheck,gosec // G104: websocket write
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck,gosec // G104: websocket ping timing

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handles queued inbound messages one at a time, so a client's events reach
// the registry in the order they were sent
func (c *Client) processInbound() {
	for {
		select {
		case msg := <-c.inbound:
			c.hub.dispatch(c, msg)
		case <-c.done:
			return
		}
	}
}

// sends a message to the client
func (c *Client) Send(msg *Message) (err error) {
	// recover from panic if channel is closed
	defer func() {
		if r := recover(); r != nil {
			err = ErrConnectionClosed
		}
	}()

	if c.IsClosed() {
		return ErrConnectionClosed
	}

	messageBytes, marshalErr := json.Marshal(msg)
	if marshalErr != nil {
		return marshalErr
	}

	select {
	case c.send <- messageBytes:
		return nil
	default:
		// a client that cannot keep up is dropped rather than stalling the session
		c.sendBufferOverflowError()
		c.Close()
		return ErrConnectionClosed
	}
}

// sends buffer overflow error directly to websocket (bypassing the full channel)
func (c *Client) sendBufferOverflowError() {
	if c.conn == nil {
		return
	}

	errorMsg, err := NewMessage(TypeError, c.SessionID(), c.UserID(), errors.ErrorResponse{
		Error:   "buffer_overflow",
		Message: "message buffer full, connection will be closed",
		Details: "too many messages queued, please reconnect",
	})
	if err != nil {
		return
	}

	errorBytes, err := json.Marshal(errorMsg)
	if err != nil {
		return
	}

	c.conn.SetWriteDeadline(time.Now().Add(2 * time.Second)) //nolint:errcheck,gosec
	c.conn.WriteMessage(websocket.TextMessage, errorBytes)   //nolint:errcheck,gosec
}

// sends an error message to this client only
func (c *Client) SendError(code, message, details string) {
	errorMsg, err := NewMessage(TypeError, c.SessionID(), c.UserID(), errors.ErrorResponse{
		Error:   code,
		Message: message,
		Details: errors.SanitizeDetails(details),
	})
	if err != nil {
		logger.ErrorErr(err, "failed to create error message",
			"client_id", c.ID,
			"error_code", code,
		)
		return
	}

	c.Send(errorMsg) //nolint:errcheck,gosec // G104: best effort error notification
}

// closes the client connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
		close(c.done)
	}
}

// checks if the client is closed
func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.closed
}

// checks if the client can send a canvas update (30/second)
func (c *Client) checkCanvasUpdateRateLimit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return allowInWindow(&c.canvasUpdateTimestamps, maxCanvasUpdatesPerSecond, time.Second)
}

// checks if the client can send a chat message (20/minute)
func (c *Client) checkChatRateLimit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return allowInWindow(&c.chatMessageTimestamps, maxChatMessagesPerMinute, time.Minute)
}

// sliding window limiter: drops timestamps older than window, then records
// now if fewer than limit remain
func allowInWindow(timestamps *[]time.Time, limit int, window time.Duration) bool {
	now := time.Now()
	cutoff := now.Add(-window)

	valid := (*timestamps)[:0]
	for _, ts := range *timestamps {
		if ts.After(cutoff) {
			valid = append(valid, ts)
		}
	}

	*timestamps = valid

	if len(valid) >= limit {
		return false
	}

	*timestamps = append(valid, now)
	return true
}

