// Package ui is the terminal chat screen. It renders the feed handed over by
// the controller and never edits the message list itself.
package ui

import (
	"context"
	"flash-chat/domain"
	"flash-chat/feed"
	"flash-chat/services"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const sendTimeout = 10 * time.Second

var (
	appStyle    = lipgloss.NewStyle().Padding(1, 2)
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")).PaddingBottom(1)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87")).PaddingTop(1)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#5A5A5A"))
	inputStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4")).
			Padding(0, 1)
	ownBubble = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#1A1A1A")).
			Background(lipgloss.Color("#AFD7FF")).
			Padding(0, 1)
	otherBubble = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#005FD7")).
			Padding(0, 1)
	senderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5F87FF"))
	timeStyle   = lipgloss.NewStyle().Faint(true)
)

// FeedMsg carries a new ordered message list from the controller.
type FeedMsg struct {
	Messages []domain.Message
}

// FeedErrMsg carries a subscription failure from the controller.
type FeedErrMsg struct {
	Err error
}

type sentMsg struct {
	body string
}

type sendFailedMsg struct {
	err error
}

type loggedOutMsg struct {
	err error
}

// Callbacks forwards controller notifications into the program's event loop.
func Callbacks(send func(tea.Msg)) feed.Callbacks {
	return feed.Callbacks{
		OnUpdate: func(messages []domain.Message) { send(FeedMsg{Messages: messages}) },
		OnError:  func(err error) { send(FeedErrMsg{Err: err}) },
	}
}

// Model is the chat screen of one room.
type Model struct {
	chat      services.IChatService
	room      domain.RoomID
	me        string
	viewport  viewport.Model
	textarea  textarea.Model
	messages  []domain.Message
	status    string
	ready     bool
	width     int
	loggedOut bool
	// sending is set while a Post is in flight; Enter is ignored meanwhile.
	sending bool
}

func NewModel(chat services.IChatService, room domain.RoomID) Model {
	ta := textarea.New()
	ta.Placeholder = "Type your message..."
	ta.Prompt = "│ "
	ta.Focus()
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.SetWidth(50)
	ta.SetHeight(2)

	me, _ := chat.Me()
	return Model{
		chat:     chat,
		room:     room,
		me:       me,
		textarea: ta,
		viewport: viewport.New(50, 10),
	}
}

// Run shows the chat screen of room until the user quits or logs out.
func Run(chat services.IChatService, room domain.RoomID) (loggedOut bool, err error) {
	p := tea.NewProgram(NewModel(chat, room), tea.WithAltScreen())
	if err := chat.Join(room, Callbacks(p.Send)); err != nil {
		return false, err
	}
	defer chat.Leave()

	final, err := p.Run()
	if err != nil {
		return false, fmt.Errorf("error running program: %w", err)
	}
	return final.(Model).LoggedOut(), nil
}

func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyCtrlL:
			return m, m.logout()
		case tea.KeyEnter:
			if m.sending {
				return m, nil
			}
			m.sending = true
			return m, m.send()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.viewport.Width = msg.Width - 6
		m.viewport.Height = msg.Height - 9
		m.textarea.SetWidth(msg.Width - 6)
		m.ready = true
		m.render()
		return m, nil

	case FeedMsg:
		m.messages = msg.Messages
		m.status = ""
		m.render()
		m.viewport.GotoBottom()
		return m, nil

	case FeedErrMsg:
		m.status = msg.Err.Error()
		return m, nil

	case sentMsg:
		m.sending = false
		// Keep what was typed after the message went out.
		if value := m.textarea.Value(); strings.HasPrefix(value, msg.body) {
			m.textarea.SetValue(strings.TrimPrefix(value, msg.body))
		}
		m.status = ""
		return m, nil

	case sendFailedMsg:
		m.sending = false
		m.status = "not sent: " + msg.err.Error()
		return m, nil

	case loggedOutMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, nil
		}
		m.loggedOut = true
		return m, tea.Quit
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
	)
	m.textarea, tiCmd = m.textarea.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, tea.Batch(tiCmd, vpCmd)
}

// send posts the input off the event loop. The input is only cleared once
// the store accepted the message.
func (m Model) send() tea.Cmd {
	body := m.textarea.Value()
	chat := m.chat
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		if err := chat.Post(ctx, body); err != nil {
			return sendFailedMsg{err: err}
		}
		return sentMsg{body: body}
	}
}

// logout runs off the event loop: leaving the room waits for the feed, and
// the feed may be waiting on the event loop.
func (m Model) logout() tea.Cmd {
	chat := m.chat
	return func() tea.Msg {
		return loggedOutMsg{err: chat.SignOut()}
	}
}

func (m *Model) render() {
	m.viewport.SetContent(formatMessages(m.messages, m.me, m.viewport.Width))
}

func (m Model) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}
	title := titleStyle.Render(fmt.Sprintf("# %s - %s", m.room, m.me))
	parts := []string{
		title,
		m.viewport.View(),
		inputStyle.Render(m.textarea.View()),
	}
	if m.status != "" {
		parts = append(parts, statusStyle.Render(m.status))
	}
	parts = append(parts, helpStyle.Render("Enter to send • Ctrl+L to log out • Esc to quit"))
	return appStyle.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m Model) Messages() []domain.Message { return m.messages }

func (m Model) Input() string { return m.textarea.Value() }

func (m Model) Status() string { return m.status }

func (m Model) LoggedOut() bool { return m.loggedOut }

func (m Model) Sending() bool { return m.sending }

// formatMessages lays out own messages on the right, others on the left.
func formatMessages(messages []domain.Message, me string, width int) string {
	var formatted strings.Builder
	for _, msg := range messages {
		stamp := timeStyle.Render(msg.SentAt.Local().Format("15:04"))
		if msg.Sender == me {
			bubble := lipgloss.JoinVertical(lipgloss.Right, ownBubble.Render(msg.Body), stamp)
			formatted.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Right, bubble))
		} else {
			bubble := lipgloss.JoinVertical(lipgloss.Left,
				senderStyle.Render(msg.Sender), otherBubble.Render(msg.Body), stamp)
			formatted.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Left, bubble))
		}
		formatted.WriteString("\n")
	}
	return formatted.String()
}
