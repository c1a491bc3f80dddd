// Package tui is the terminal page that hosts the chat widget: a text input,
// a scrolling log and Enter as the send trigger.
package tui

import (
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"moodchat/internal/models"
)

var (
	userStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)
	botStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("118"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("246"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	frameStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
)

const (
	defaultWidth  = 80
	defaultHeight = 20
	chromeHeight  = 5 // border, input line, help line
)

// Screen owns the input field and the log viewport. It implements
// widget.View; every method is safe to call from any goroutine, and changes
// made outside the bubbletea loop wake it through Changed.
type Screen struct {
	mu       sync.Mutex
	input    textinput.Model
	viewport viewport.Model
	messages []models.ChatMessage
	width    int

	changed chan struct{}
}

func NewScreen() *Screen {
	ti := textinput.New()
	ti.Placeholder = "Say hi..."
	ti.Prompt = "› "
	ti.Focus()

	vp := viewport.New(defaultWidth, defaultHeight)
	// typing must not scroll, so only the arrow and page keys move the log
	vp.KeyMap = viewport.KeyMap{
		PageUp:   key.NewBinding(key.WithKeys("pgup")),
		PageDown: key.NewBinding(key.WithKeys("pgdown")),
		Up:       key.NewBinding(key.WithKeys("up")),
		Down:     key.NewBinding(key.WithKeys("down")),
	}

	return &Screen{
		input:    ti,
		viewport: vp,
		width:    defaultWidth,
		changed:  make(chan struct{}, 1),
	}
}

func (s *Screen) InputValue() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input.Value()
}

func (s *Screen) ClearInput() {
	s.mu.Lock()
	s.input.Reset()
	s.mu.Unlock()
	s.notify()
}

func (s *Screen) Append(msg models.ChatMessage) {
	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.viewport.SetContent(s.renderLocked())
	s.mu.Unlock()
	s.notify()
}

func (s *Screen) ScrollToBottom() {
	s.mu.Lock()
	s.viewport.GotoBottom()
	s.mu.Unlock()
	s.notify()
}

// Changed fires after a mutation; it coalesces bursts into one signal.
func (s *Screen) Changed() <-chan struct{} {
	return s.changed
}

// Messages returns a copy of the log.
func (s *Screen) Messages() []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// AtBottom reports whether the viewport shows the newest line.
func (s *Screen) AtBottom() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewport.AtBottom()
}

func (s *Screen) notify() {
	select {
	case s.changed <- struct{}{}:
	default:
	}
}

func (s *Screen) resize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width = width
	s.viewport.Width = width - 2
	s.viewport.Height = max(height-chromeHeight, 1)
	s.input.Width = width - 6
	s.viewport.SetContent(s.renderLocked())
}

func (s *Screen) update(msg tea.Msg) tea.Cmd {
	s.mu.Lock()
	defer s.mu.Unlock()
	var inputCmd, viewCmd tea.Cmd
	s.input, inputCmd = s.input.Update(msg)
	s.viewport, viewCmd = s.viewport.Update(msg)
	return tea.Batch(inputCmd, viewCmd)
}

func (s *Screen) view() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	log := frameStyle.Width(s.width - 2).Render(s.viewport.View())
	help := helpStyle.Render("enter send • ↑/↓ pgup/pgdn scroll • esc quit")
	return lipgloss.JoinVertical(lipgloss.Left, log, s.input.View(), help)
}

func (s *Screen) renderLocked() string {
	width := max(s.viewport.Width, 10)
	lines := make([]string, 0, len(s.messages))
	for _, msg := range s.messages {
		var label, body string
		switch msg.Origin {
		case models.OriginUser:
			label, body = labelStyle.Render("you"), userStyle.Render(msg.Text)
		default:
			label, body = labelStyle.Render("bot"), botStyle.Render(msg.Text)
		}
		lines = append(lines, lipgloss.NewStyle().Width(width).Render(label+"  "+body))
	}
	return strings.Join(lines, "\n")
}
