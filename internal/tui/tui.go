package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

func NewApp(mode, userID, apiEndpoint, wsEndpoint string, width, height int) *Model {
	return &Model{
		state:   StateWelcome,
		mode:    mode,
		userID:  userID,
		width:   width,
		height:  height,
		api:     NewAPIClient(apiEndpoint),
		ws:      NewWSClient(wsEndpoint),
		welcome: NewWelcome(mode, userID),
	}
}

func (m *Model) Init() tea.Cmd {
	return m.api.ListSessionsCmd()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// only quit from welcome screen, not from a session
		if msg.String() == "ctrl+c" && m.state == StateWelcome {
			m.ws.Close()
			return m, tea.Quit
		}

		// in a session, ctrl+c goes back to welcome
		if msg.String() == "ctrl+c" && m.state == StateSession {
			return m.leave()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case JoinSessionMsg:
		m.session = NewSessionModel(msg.sessionID, m.userID, m.width, m.height)
		return m, m.ws.ConnectCmd(msg.sessionID, m.userID)

	case WSConnectedMsg:
		m.state = StateSession
		return m, m.ws.WaitForEvent()

	case WSConnectErrorMsg:
		m.session = nil
		m.welcome.setStatus(msg.err.Error(), true)
		return m, nil

	case ServerEventMsg:
		// events from a connection we already left
		if msg.gen != m.ws.Generation() || m.session == nil {
			return m, nil
		}

		var cmd tea.Cmd
		m.session, cmd = m.session.Update(msg, m.ws.Send)
		return m, tea.Batch(cmd, m.ws.WaitForEvent())

	case WSDisconnectedMsg:
		if msg.gen == m.ws.Generation() && m.session != nil && !m.session.ended {
			m.session.ended = true
			m.session.status = "disconnected, ctrl+c to go back"
		}
		return m, nil

	case LeaveSessionMsg:
		return m.leave()
	}

	switch m.state {
	case StateWelcome:
		var cmd tea.Cmd
		m.welcome, cmd = m.welcome.Update(msg, m.api)
		return m, cmd

	case StateSession:
		var cmd tea.Cmd
		m.session, cmd = m.session.Update(msg, m.ws.Send)
		return m, cmd

	default:
		return m, nil
	}
}

func (m *Model) leave() (tea.Model, tea.Cmd) {
	m.ws.Close()
	m.session = nil
	m.state = StateWelcome
	m.welcome.setStatus("left the session", false)

	return m, m.api.ListSessionsCmd()
}

func (m *Model) View() string {
	switch m.state {
	case StateWelcome:
		return m.welcome.View()

	case StateSession:
		return m.session.View()

	default:
		return "Unknown state"
	}
}
