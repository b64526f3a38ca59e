package tui

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"

	"codeberg.org/moodcanvas/server/internal/errors"
	ws "codeberg.org/moodcanvas/server/internal/websocket"
)

const (
	headerHeight = 4
	footerHeight = 5
	gaugeWidth   = 20
)

// returns the screen for one joined session
func NewSessionModel(sessionID, userID string, width, height int) *SessionModel {
	ti := textinput.New()
	ti.Placeholder = "say something, or /undo /redo /react <n> <emoji> /leave"
	ti.Focus()
	ti.CharLimit = 2000
	ti.Prompt = "> "
	ti.PromptStyle = promptStyle
	ti.TextStyle = inputStyle

	m := &SessionModel{
		sessionID: sessionID,
		userID:    userID,
		input:     ti,
		status:    "connecting...",
	}

	m.resize(width, height)

	return m
}

func (m *SessionModel) resize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = max(10, width-6)

	vpHeight := max(3, height-headerHeight-footerHeight)
	if !m.ready {
		m.viewport = viewport.New(max(10, width-4), vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = max(10, width-4)
		m.viewport.Height = vpHeight
	}

	renderer, err := glamour.NewTermRenderer(
		glamourStyle(),
		glamour.WithWordWrap(max(10, width-12)),
	)
	if err == nil {
		m.renderer = renderer
	}

	m.refresh()
}

// handles input and server events. sender is nil in tests.
func (m *SessionModel) Update(msg tea.Msg, sender func(string, any) error) (*SessionModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEnter {
			line := m.input.Value()
			m.input.SetValue("")
			return m, m.submit(line, sender)
		}

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case ServerEventMsg:
		m.apply(msg.msg)
		return m, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *SessionModel) submit(line string, sender func(string, any) error) tea.Cmd {
	if strings.TrimSpace(line) == "" || m.ended {
		return nil
	}

	name, args := parseInput(line)

	var msgType string
	var payload any

	switch name {
	case "":
		msgType, payload = ws.TypeChat, ws.ChatPayload{Text: line}

	case "undo":
		msgType = ws.TypeUndo

	case "redo":
		msgType = ws.TypeRedo

	case "react":
		reaction, err := m.reaction(args)
		if err != nil {
			m.status = err.Error()
			return nil
		}
		msgType, payload = ws.TypeReaction, reaction

	case "leave":
		return func() tea.Msg { return LeaveSessionMsg{} }

	default:
		m.status = fmt.Sprintf("unknown command: /%s", name)
		return nil
	}

	if sender == nil {
		return nil
	}

	if err := sender(msgType, payload); err != nil {
		m.status = "send failed: " + err.Error()
	}

	return nil
}

// /react <n> <emoji>, n being the number shown next to a message
func (m *SessionModel) reaction(args []string) (ws.ReactionPayload, error) {
	if len(args) != 2 {
		return ws.ReactionPayload{}, fmt.Errorf("usage: /react <n> <emoji>")
	}

	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(m.lines) {
		return ws.ReactionPayload{}, fmt.Errorf("no message numbered %s", args[0])
	}

	return ws.ReactionPayload{MessageID: m.lines[n-1].id, Emoji: args[1]}, nil
}

// folds one server message into the screen state
func (m *SessionModel) apply(msg ws.Message) {
	switch msg.Type {
	case ws.TypeSessionState:
		var state ws.SessionStatePayload
		if err := msg.UnmarshalPayload(&state); err != nil {
			return
		}

		m.name = state.Name
		m.participants = state.Participants
		m.mood = state.Mood
		m.elements = state.Canvas.ElementCount()
		m.lines = m.lines[:0]
		for _, c := range state.ChatHistory {
			m.lines = append(m.lines, lineFromPayload(c))
		}
		m.status = "joined as " + m.userID

	case ws.TypeChatMessage:
		var chat ws.ChatMessagePayload
		if err := msg.UnmarshalPayload(&chat); err != nil {
			return
		}
		m.lines = append(m.lines, lineFromPayload(chat))

	case ws.TypeMoodUpdate:
		var update ws.MoodUpdatePayload
		if err := msg.UnmarshalPayload(&update); err != nil {
			return
		}
		m.mood = update

	case ws.TypeParticipantsChanged:
		var changed ws.ParticipantsChangedPayload
		if err := msg.UnmarshalPayload(&changed); err != nil {
			return
		}
		m.participants = changed.Participants

	case ws.TypeReactionUpdated:
		var updated ws.ReactionUpdatedPayload
		if err := msg.UnmarshalPayload(&updated); err != nil {
			return
		}
		for i := range m.lines {
			if m.lines[i].id == updated.MessageID {
				m.lines[i].reactions = updated.Reactions
			}
		}

	case ws.TypeCanvasUpdate:
		var update ws.CanvasUpdatePayload
		if err := msg.UnmarshalPayload(&update); err != nil {
			return
		}
		m.elements = update.Elements.ElementCount()
		if msg.UserID != "" {
			m.status = "canvas changed by " + msg.UserID
		}

	case ws.TypeError:
		var errResp errors.ErrorResponse
		if err := json.Unmarshal(msg.Payload, &errResp); err != nil {
			return
		}
		m.status = fmt.Sprintf("%s: %s", errResp.Error, errResp.Message)

	case ws.TypeSessionEnded:
		var ended ws.SessionEndedPayload
		_ = msg.UnmarshalPayload(&ended)
		m.ended = true
		m.status = "session ended: " + ended.Reason

	case ws.TypeServerShutdown:
		var shutdown ws.ServerShutdownPayload
		_ = msg.UnmarshalPayload(&shutdown)
		m.ended = true
		m.status = "server shutting down: " + shutdown.Reason
	}

	m.refresh()
}

// auto-detects the background on a terminal, plain output otherwise
func glamourStyle() glamour.TermRendererOption {
	if !term.IsTerminal(os.Stdout.Fd()) {
		return glamour.WithStandardStyle(styles.NoTTYStyle)
	}

	return glamour.WithAutoStyle()
}

func lineFromPayload(c ws.ChatMessagePayload) chatLine {
	return chatLine{
		id:        c.ID,
		userID:    c.UserID,
		text:      c.Text,
		at:        time.UnixMilli(c.Timestamp),
		reactions: c.Reactions,
	}
}

// re-renders the chat log into the viewport and keeps it scrolled down
func (m *SessionModel) refresh() {
	if !m.ready {
		return
	}

	var b strings.Builder
	for i, line := range m.lines {
		header := fmt.Sprintf("%d. %s %s", i+1, commandStyle.Render(line.userID), infoStyle.Render(line.at.Format("15:04")))
		b.WriteString(header)
		b.WriteString("\n")
		b.WriteString(m.renderText(line.text))
		b.WriteString("\n")
		if reactions := formatReactions(line.reactions); reactions != "" {
			b.WriteString(commandDescStyle.Render(reactions))
			b.WriteString("\n")
		}
	}

	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

func (m *SessionModel) renderText(text string) string {
	if m.renderer == nil {
		return "  " + text
	}

	out, err := m.renderer.Render(text)
	if err != nil {
		return "  " + text
	}

	return strings.TrimRight(out, "\n")
}

func (m *SessionModel) View() string {
	var b strings.Builder

	title := m.name
	if title == "" {
		title = m.sessionID
	}

	help := helpStyle.Render("[Enter: Send] [/leave or Ctrl+C: Back]")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Left,
		titleStyle.UnsetMargins().Render(title),
		strings.Repeat(" ", max(1, m.width-lipgloss.Width(title)-lipgloss.Width(help)-2)),
		help,
	))
	b.WriteString("\n")

	kind := m.mood.Kind
	if kind == "" {
		kind = "neutral"
	}
	b.WriteString(fmt.Sprintf("mood %s %s %.0f",
		moodStyle(kind).Render(moodGauge(m.mood.Intensity, gaugeWidth)),
		moodStyle(kind).Bold(true).Render(kind),
		m.mood.Intensity,
	))
	b.WriteString("\n")
	b.WriteString(infoStyle.Render(fmt.Sprintf("here: %s | canvas elements: %d",
		strings.Join(m.participants, ", "), m.elements)))
	b.WriteString("\n")

	b.WriteString(borderStyle.Width(max(10, m.width-2)).Render(m.viewport.View()))
	b.WriteString("\n")

	b.WriteString(borderStyle.Width(max(10, m.width-2)).Padding(0, 1).Render(m.input.View()))
	b.WriteString("\n")
	b.WriteString(infoStyle.Render(m.status))

	return b.String()
}
