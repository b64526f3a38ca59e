package websocket

import (
	"fmt"
	"sort"
	"time"

	"github.com/gorilla/websocket"

	"codeberg.org/moodcanvas/server/internal/errors"
	"codeberg.org/moodcanvas/server/internal/logger"
)

func NewHub() *Hub {
	return &Hub{
		clients:          make(map[string]*Client),
		sessions:         make(map[string]map[string]*Client),
		Register:         make(chan *Client),
		Unregister:       make(chan *Client),
		Broadcast:        make(chan *Message, 256),
		handlers:         make(map[string]MessageHandler),
		shutdown:         make(chan struct{}),
		stopped:          make(chan struct{}),
		ipConnections:    make(map[string]int),
		sessionSequences: make(map[string]uint64),
	}
}

// registers a handler for a specific message type
func (h *Hub) RegisterHandler(messageType string, handler MessageHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[messageType] = handler
}

// sets callback to be called when a client disconnects
func (h *Hub) OnClientDisconnect(callback func(client *Client)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onClientDisconnect = callback
}

// starts the hub's main loop
func (h *Hub) Run() {
	h.mu.Lock()
	h.running = true
	h.mu.Unlock()

	defer close(h.stopped)

	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case message := <-h.Broadcast:
			h.handleMessage(message)

		case <-h.shutdown:
			h.closeAllConnections()
			return
		}
	}
}

// wraps an upgraded connection in a client, registers it and starts its pumps.
// A non-nil first message is handled before anything the client sends.
func (h *Hub) Attach(conn *websocket.Conn, ipAddress string, first *Message) (*Client, error) {
	clientID, err := GenerateClientID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate client id: %w", err)
	}

	client := NewClient(clientID, ipAddress, conn, h)
	if first != nil {
		client.stamp(first)
		client.inbound <- first
	}

	h.Register <- client

	go client.WritePump()
	go client.ReadPump()

	return client, nil
}

// adds a connected, not yet joined client to the hub
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()

	go client.processInbound()

	logger.Info("client registered",
		"client_id", client.ID,
		"ip_address", client.IPAddress,
	)
}

// removes a client from the hub and from its session group
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()

	if _, exists := h.clients[client.ID]; !exists {
		h.mu.Unlock()
		return
	}

	// capture callback reference under lock
	callback := h.onClientDisconnect

	delete(h.clients, client.ID)
	h.leaveGroupLocked(client, client.SessionID())
	h.untrackLocked(client.IPAddress)
	client.Close()

	h.mu.Unlock()

	logger.Info("client unregistered",
		"client_id", client.ID,
		"session_id", client.SessionID(),
	)

	// call disconnect callback outside lock (it mutates the registry and broadcasts)
	if callback != nil {
		callback(client)
	}
}

// queues an inbound message on its sender's worker
func (h *Hub) handleMessage(msg *Message) {
	h.mu.RLock()
	sender, exists := h.clients[msg.ClientID]
	h.mu.RUnlock()

	if !exists {
		logger.Warn("sender client not found for message",
			"client_id", msg.ClientID,
			"message_type", msg.Type,
		)
		return
	}

	select {
	case sender.inbound <- msg:
	default:
		sender.SendError(errors.CodeTooManyRequests, "too many pending messages", "")
	}
}

// runs the handler for one message on the sender's worker goroutine
func (h *Hub) dispatch(sender *Client, msg *Message) {
	h.mu.RLock()
	handler, exists := h.handlers[msg.Type]
	h.mu.RUnlock()

	if !exists {
		logger.Warn("unhandled message type received",
			"message_type", msg.Type,
			"client_id", sender.ID,
		)

		sender.SendError(errors.CodeBadRequest, "unsupported message type", "message type not recognized")
		return
	}

	// only a join may name a session and user; everything else acts as the
	// identity left by the messages handled before it
	if msg.Type != TypeJoin {
		msg.SessionID = sender.SessionID()
		msg.UserID = sender.UserID()
	}

	if msg.Type != TypeJoin && msg.Type != TypePing && msg.SessionID == "" {
		sender.SendError(errors.CodeNotJoined, "join a session first", "")
		return
	}

	if err := handler(h, sender, msg); err != nil {
		// handlers report errors to the sender themselves
		logger.Debug("handler error",
			"message_type", msg.Type,
			"client_id", sender.ID,
			"session_id", msg.SessionID,
			"error", err,
		)
	}
}

// moves the client into a session's group, leaving any previous group first.
// Returns the session the client was in before.
func (h *Hub) JoinSession(client *Client, sessionID, userID string) string {
	h.mu.Lock()
	defer h.mu.Unlock()

	previous := client.SessionID()
	h.leaveGroupLocked(client, previous)

	if h.sessions[sessionID] == nil {
		h.sessions[sessionID] = make(map[string]*Client)
	}

	h.sessions[sessionID][client.ID] = client
	client.setSession(sessionID, userID)

	return previous
}

// must be called with lock held
func (h *Hub) leaveGroupLocked(client *Client, sessionID string) {
	if sessionID == "" {
		return
	}

	group, exists := h.sessions[sessionID]
	if !exists {
		return
	}

	delete(group, client.ID)

	if len(group) == 0 {
		delete(h.sessions, sessionID)
		delete(h.sessionSequences, sessionID)
	}
}

// runs fn while holding the publish lock. A chat's message and mood
// broadcasts happen under it, so a classifier result cannot overtake them.
func (h *Hub) inOrder(fn func()) {
	h.publishMu.Lock()
	defer h.publishMu.Unlock()
	fn()
}

// sends a message to all clients in a session
func (h *Hub) BroadcastToSession(sessionID string, msg *Message, excludeClientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcastToSession(sessionID, msg, excludeClientID)
}

// the internal broadcast function (must be called with lock held)
func (h *Hub) broadcastToSession(sessionID string, msg *Message, excludeClientID string) {
	group, exists := h.sessions[sessionID]
	if !exists {
		return
	}

	// assign sequence number to message
	h.sessionSequences[sessionID]++
	msg.Sequence = h.sessionSequences[sessionID]

	for clientID, client := range group {
		if clientID == excludeClientID {
			continue
		}

		if err := client.Send(msg); err != nil {
			logger.ErrorErr(err, "failed to send message to client",
				"client_id", clientID,
				"session_id", sessionID,
			)
		}
	}
}

// returns all clients joined to a session, ordered by client id
func (h *Hub) GetSessionClients(sessionID string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	group := h.sessions[sessionID]
	clients := make([]*Client, 0, len(group))

	for _, client := range group {
		clients = append(clients, client)
	}

	sort.Slice(clients, func(i, j int) bool { return clients[i].ID < clients[j].ID })

	return clients
}

// returns the number of clients joined to a session
func (h *Hub) GetClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}

// returns the number of connected clients, joined or not
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// returns the number of sessions with at least one joined client
func (h *Hub) GetSessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// stops the hub loop after notifying and closing every client. Blocks until
// Run has returned when the hub was running.
func (h *Hub) Shutdown() {
	h.shutdownOnce.Do(func() { close(h.shutdown) })

	h.mu.RLock()
	running := h.running
	h.mu.RUnlock()

	if running {
		<-h.stopped
	}
}

func (h *Hub) closeAllConnections() {
	h.mu.Lock()

	logger.Info("notifying clients of server shutdown")

	for _, client := range h.clients {
		shutdownMsg, err := NewMessage(TypeServerShutdown, client.SessionID(), "", ServerShutdownPayload{
			Reason: "server is shutting down",
		})
		if err != nil {
			logger.ErrorErr(err, "failed to create shutdown message")
			continue
		}

		if err := client.Send(shutdownMsg); err != nil {
			logger.Debug("failed to send shutdown notification",
				"client_id", client.ID,
				"error", err,
			)
		}
	}

	h.mu.Unlock()

	// give clients time to receive the shutdown message
	time.Sleep(500 * time.Millisecond)

	h.mu.Lock()
	defer h.mu.Unlock()

	logger.Info("closing all websocket connections")

	for _, client := range h.clients {
		client.Close()
	}

	// clear all sessions and connection tracking
	h.clients = make(map[string]*Client)
	h.sessions = make(map[string]map[string]*Client)
	h.ipConnections = make(map[string]int)
	h.sessionSequences = make(map[string]uint64)
}

// checks if a new connection from ipAddress stays within the per-IP limit
func (h *Hub) CanAcceptConnection(ipAddress string) (bool, string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.ipConnections[ipAddress] >= maxConnectionsPerIP {
		return false, "Maximum connections per IP address exceeded"
	}

	return true, ""
}

// increments the connection count for an IP address
func (h *Hub) TrackIPConnection(ipAddress string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ipConnections[ipAddress]++
}

// decrements the connection count for an IP address
func (h *Hub) UntrackIPConnection(ipAddress string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.untrackLocked(ipAddress)
}

func (h *Hub) untrackLocked(ipAddress string) {
	if ipAddress == "" {
		return
	}

	h.ipConnections[ipAddress]--

	if h.ipConnections[ipAddress] <= 0 {
		delete(h.ipConnections, ipAddress)
	}
}

// broadcasts session_ended to the session's clients and closes their
// connections. The clients stay registered until their read pumps exit.
func (h *Hub) EndSession(sessionID string, reason string) {
	h.mu.Lock()

	group, exists := h.sessions[sessionID]
	if !exists {
		h.mu.Unlock()
		return
	}

	logger.Info("ending session, notifying clients",
		"session_id", sessionID,
		"client_count", len(group),
	)

	sessionEndedMsg, err := NewMessage(TypeSessionEnded, sessionID, "", SessionEndedPayload{
		Reason: reason,
	})
	if err != nil {
		logger.ErrorErr(err, "failed to create session_ended message",
			"session_id", sessionID,
		)
		h.mu.Unlock()
		return
	}

	h.broadcastToSession(sessionID, sessionEndedMsg, "")

	h.mu.Unlock()

	// give clients time to receive the message
	time.Sleep(100 * time.Millisecond)

	h.mu.Lock()
	defer h.mu.Unlock()

	group, exists = h.sessions[sessionID]
	if !exists {
		return
	}

	for _, client := range group {
		// the session is gone, so the disconnect callback must not leave it
		client.setSession("", "")
		client.Close()
	}

	delete(h.sessions, sessionID)
	delete(h.sessionSequences, sessionID)

	logger.Info("session ended and removed",
		"session_id", sessionID,
	)
}
