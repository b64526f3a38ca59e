package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// returns a new welcome screen
func NewWelcome(mode, userID string) *Welcome {
	ti := textinput.New()
	ti.Placeholder = "new standup"
	ti.Focus()
	ti.CharLimit = 200
	ti.Prompt = "> "
	ti.PromptStyle = promptStyle
	ti.TextStyle = inputStyle

	return &Welcome{
		mode:   mode,
		userID: userID,
		input:  ti,
		commands: []Command{
			{Name: "new", Usage: "new <name>", Description: "create a session and join it"},
			{Name: "list", Usage: "list", Description: "show live sessions"},
			{Name: "join", Usage: "join <number|session id>", Description: "join a listed session"},
			{Name: "quit", Usage: "quit", Description: "exit moodcanvas"},
		},
	}
}

func (m *Welcome) Update(msg tea.Msg, api *APIClient) (*Welcome, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEnter {
			line := m.input.Value()
			m.input.SetValue("")
			return m, m.executeCommand(line, api)
		}

	case SessionsListedMsg:
		m.sessions = msg.sessions
		m.setStatus(fmt.Sprintf("%d live sessions", len(msg.sessions)), false)
		return m, nil

	case ErrorMsg:
		m.setStatus(msg.err.Error(), true)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m *Welcome) setStatus(status string, isError bool) {
	m.status = status
	m.isError = isError
}

func (m *Welcome) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(logo))
	b.WriteString("\n")
	b.WriteString(subtitleStyle.Render("draw and chat together, see how the room feels"))
	b.WriteString("\n\n")

	b.WriteString(infoStyle.Render(fmt.Sprintf("mode: %s | you are %s", strings.ToUpper(m.mode), m.userID)))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(colorWhite).Render("commands:"))
	b.WriteString("\n\n")

	for _, cmd := range m.commands {
		line := fmt.Sprintf("  %s %s",
			commandStyle.Render(cmd.Usage),
			commandDescStyle.Render("- "+cmd.Description),
		)
		b.WriteString(line)
		b.WriteString("\n")
	}

	if len(m.sessions) > 0 {
		b.WriteString("\n")
		for i, s := range m.sessions {
			line := fmt.Sprintf("%d. %s (%d here, %s) %s",
				i+1, s.Name, len(s.Participants), s.Mood.Kind, infoStyle.Render(s.ID))
			b.WriteString(menuItemStyle.Render(line))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	if m.status != "" {
		if m.isError {
			b.WriteString(errorStyle.Render(m.status))
		} else {
			b.WriteString(successStyle.Render(m.status))
		}
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("type a command and press enter. press ctrl+c to quit."))

	return b.String()
}

func (m *Welcome) executeCommand(line string, api *APIClient) tea.Cmd {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	args := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))

	switch strings.ToLower(fields[0]) {
	case "quit":
		return tea.Quit

	case "list":
		m.setStatus("fetching sessions...", false)
		return api.ListSessionsCmd()

	case "new":
		if args == "" {
			m.setStatus("usage: new <name>", true)
			return nil
		}
		m.setStatus("creating "+args+"...", false)
		return api.CreateSessionCmd(args)

	case "join":
		sessionID, err := m.resolveSession(args)
		if err != nil {
			m.setStatus(err.Error(), true)
			return nil
		}
		m.setStatus("joining...", false)
		return func() tea.Msg {
			return JoinSessionMsg{sessionID: sessionID}
		}

	default:
		m.setStatus(fmt.Sprintf("unknown command: %s", fields[0]), true)
		return nil
	}
}

// accepts a 1-based index into the last listing or a raw session id
func (m *Welcome) resolveSession(arg string) (string, error) {
	if arg == "" {
		return "", fmt.Errorf("usage: join <number|session id>")
	}

	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(m.sessions) {
			return "", fmt.Errorf("no session numbered %d, try list", n)
		}
		return m.sessions[n-1].ID, nil
	}

	return arg, nil
}
