package websocket

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"codeberg.org/moodcanvas/server/internal/canvas"
)

// message type constants for websocket communication
const (
	// is sent by a client to enter a session
	TypeJoin = "join"

	// is sent by a client to post a chat message
	TypeChat = "chat"

	// is sent by a client with its canvas, and fanned out to the others
	TypeCanvasUpdate = "canvas_update"

	// are sent by clients to step through canvas history
	TypeUndo = "undo"
	TypeRedo = "redo"

	// is sent by a client to toggle an emoji reaction on a chat message
	TypeReaction = "reaction"

	// is sent by clients to keep the connection alive
	TypePing = "ping"

	// is sent by server in response to ping
	TypePong = "pong"

	// is sent to a joining client with the full session state
	TypeSessionState = "session_state"

	// is sent when the participant set of a session changes
	TypeParticipantsChanged = "participants_changed"

	// is sent when a chat message is stored
	TypeChatMessage = "chat_message"

	// is sent whenever the session mood is recomputed
	TypeMoodUpdate = "mood_update"

	// is sent when a message's reactions change
	TypeReactionUpdated = "reaction_updated"

	// is sent when an error occurs
	TypeError = "error"

	// is sent by server before shutdown
	TypeServerShutdown = "server_shutdown"

	// is sent when the session is deleted or evicted
	TypeSessionEnded = "session_ended"
)

// client connection constants
const (
	// time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// maximum message size allowed from peer
	maxMessageSize = 512 * 1024 // 512 KB

	// rate limiting constants
	maxCanvasUpdatesPerSecond = 30 // maximum canvas updates per second
	maxChatMessagesPerMinute  = 20 // maximum chat messages per minute

	// inbound messages queued per client before new ones are rejected
	inboundQueueSize = 64
)

// hub connection limit constants
const (
	maxConnectionsPerIP = 10
)

// errors
var (
	ErrNotJoined         = errors.New("not joined to a session")
	ErrInvalidMessage    = errors.New("invalid message format")
	ErrConnectionClosed  = errors.New("connection closed")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// represents a websocket message with typed payload
type Message struct {
	Type      string          `json:"type"`
	SessionID string          `json:"session_id"`
	ClientID  string          `json:"-"` // internal only, not sent to clients
	UserID    string          `json:"user_id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Sequence  uint64          `json:"seq,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

// asks to join a session; session_id falls back to the envelope's
type JoinPayload struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
}

// an inbound chat message
type ChatPayload struct {
	Text    string `json:"text"`
	ReplyTo string `json:"reply_to,omitempty"`
}

// carries a full canvas snapshot in either direction
type CanvasUpdatePayload struct {
	Elements canvas.Snapshot `json:"elements"`
}

// toggles a reaction on a chat message
type ReactionPayload struct {
	MessageID string `json:"message_id"`
	Emoji     string `json:"emoji"`
}

// a chat message as clients see it
type ChatMessagePayload struct {
	ID        string              `json:"id"`
	UserID    string              `json:"user_id"`
	Text      string              `json:"text"`
	Timestamp int64               `json:"timestamp"` // unix milliseconds
	ReplyTo   string              `json:"reply_to,omitempty"`
	Reactions map[string][]string `json:"reactions,omitempty"`
}

// the recomputed session mood
type MoodUpdatePayload struct {
	Kind      string  `json:"kind"`
	Intensity float64 `json:"intensity"`
	Timestamp int64   `json:"timestamp"` // unix milliseconds
}

// contains who caused the change and who is present now
type ParticipantsChangedPayload struct {
	UserID       string   `json:"user_id"`
	Participants []string `json:"participants"`
}

// contains session info sent to a joining client
type SessionStatePayload struct {
	SessionID    string               `json:"session_id"`
	Name         string               `json:"name"`
	Canvas       canvas.Snapshot      `json:"canvas"`
	CanUndo      bool                 `json:"can_undo"`
	CanRedo      bool                 `json:"can_redo"`
	Mood         MoodUpdatePayload    `json:"mood"`
	Participants []string             `json:"participants"`
	ChatHistory  []ChatMessagePayload `json:"chat_history"`
}

// contains the reactions of a message after a toggle
type ReactionUpdatedPayload struct {
	MessageID string              `json:"message_id"`
	Reactions map[string][]string `json:"reactions"`
}

// contains information about server shutdown
type ServerShutdownPayload struct {
	Reason string `json:"reason"`
}

// contains session termination information
type SessionEndedPayload struct {
	Reason string `json:"reason,omitempty"`
}

// represents a websocket client connection
type Client struct {
	// unique identifier for this client
	ID string

	// IP address of the client (for connection tracking)
	IPAddress string

	// session and user this connection joined as; empty until a join
	sessionID string
	userID    string

	// websocket connection
	conn *websocket.Conn

	// hub reference for message broadcasting
	hub *Hub

	// buffered channel of outbound messages
	send chan []byte

	// inbound messages, handled one at a time in arrival order
	inbound chan *Message

	// closed together with send
	done chan struct{}

	// mutex for thread-safe operations
	mu sync.RWMutex

	// flag indicating if client is closed
	closed bool

	// rate limiting: canvas update timestamps (sliding window)
	canvasUpdateTimestamps []time.Time

	// rate limiting: chat message timestamps (sliding window)
	chatMessageTimestamps []time.Time
}

// maintains the set of active clients and broadcasts messages to sessions
type Hub struct {
	// every registered client by client ID
	clients map[string]*Client

	// joined clients by session ID and client ID
	sessions map[string]map[string]*Client

	// register requests from clients
	Register chan *Client

	// unregister requests from clients
	Unregister chan *Client

	// inbound messages from clients
	Broadcast chan *Message

	// mutex for thread-safe access to sessions
	mu sync.RWMutex

	// orders chat fan-out against asynchronous mood updates
	publishMu sync.Mutex

	// message handlers for different message types
	handlers map[string]MessageHandler

	// flag indicating if hub is running
	running bool

	// channel to signal shutdown
	shutdown     chan struct{}
	shutdownOnce sync.Once

	// closed when Run returns
	stopped chan struct{}

	// connection tracking: IP address -> count of connections
	ipConnections map[string]int

	// sequence numbers per session for message ordering
	sessionSequences map[string]uint64

	// callback for client disconnect (e.g., leave the session)
	onClientDisconnect func(client *Client)
}

// processes a specific message type
type MessageHandler func(hub *Hub, client *Client, msg *Message) error
