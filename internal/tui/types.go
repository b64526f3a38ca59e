package tui

import (
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"
	"github.com/gorilla/websocket"

	ws "codeberg.org/moodcanvas/server/internal/websocket"
)

// represents the current state of the TUI
type AppState int

const (
	StateWelcome AppState = iota
	StateSession
)

const (
	requestTimeout = 10 * time.Second
	writeWait      = 10 * time.Second
	eventQueueSize = 128
)

// main TUI application model
type Model struct {
	state   AppState
	mode    string
	userID  string
	width   int
	height  int
	api     *APIClient
	ws      *WSClient
	welcome *Welcome
	session *SessionModel
}

// sent when an error occurs
type ErrorMsg struct {
	err error
}

// sent once the session list has been fetched
type SessionsListedMsg struct {
	sessions []sessionSummary
}

// asks the app to open a live connection to a session
type JoinSessionMsg struct {
	sessionID string
}

// sent when the websocket connection is up
type WSConnectedMsg struct {
	sessionID string
}

// sent when the websocket dial fails
type WSConnectErrorMsg struct {
	err error
}

// carries one server message. gen identifies the connection it came from.
type ServerEventMsg struct {
	gen uint64
	msg ws.Message
}

// sent when the connection's event stream ends
type WSDisconnectedMsg struct {
	gen uint64
}

// asks the app to leave the current session
type LeaveSessionMsg struct{}

// welcome screen model
type Welcome struct {
	mode     string
	userID   string
	input    textinput.Model
	commands []Command
	sessions []sessionSummary
	status   string
	isError  bool
}

// represents an available TUI command
type Command struct {
	Name        string
	Usage       string
	Description string
}

// live session screen
type SessionModel struct {
	sessionID    string
	name         string
	userID       string
	input        textinput.Model
	viewport     viewport.Model
	renderer     *glamour.TermRenderer
	lines        []chatLine
	participants []string
	mood         ws.MoodUpdatePayload
	elements     int
	width        int
	height       int
	ready        bool
	status       string
	ended        bool
}

// a chat message as the TUI shows it
type chatLine struct {
	id        string
	userID    string
	text      string
	at        time.Time
	reactions map[string][]string
}

// manages HTTP requests to the sessions REST API
type APIClient struct {
	endpoint   string
	httpClient *http.Client
}

// one live connection to the gateway
type WSClient struct {
	endpoint string

	mu     sync.Mutex
	conn   *websocket.Conn
	events chan ws.Message
	done   chan struct{}
	gen    uint64
}

// the subset of a session view the TUI uses
type sessionSummary struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Participants []string `json:"participants"`
	MessageCount int      `json:"message_count"`
	Mood         struct {
		Kind      string  `json:"kind"`
		Intensity float64 `json:"intensity"`
	} `json:"mood"`
}
