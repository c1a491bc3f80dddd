package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"moodchat/internal/widget"
)

// Submitter is the send action bound to Enter.
type Submitter interface {
	Submit()
}

type refreshMsg struct{}

// Model is the bubbletea program model; all state lives in the Screen.
type Model struct {
	screen *Screen
	submit Submitter
}

func NewModel(screen *Screen, submit Submitter) Model {
	return Model{screen: screen, submit: submit}
}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return refreshMsg{}
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForChange(m.screen.Changed()))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch ev := msg.(type) {
	case tea.KeyMsg:
		switch ev.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			m.submit.Submit()
			return m, nil
		}
	case tea.WindowSizeMsg:
		m.screen.resize(ev.Width, ev.Height)
		return m, nil
	case refreshMsg:
		return m, waitForChange(m.screen.Changed())
	}
	return m, m.screen.update(msg)
}

func (m Model) View() string {
	return m.screen.view()
}

// Run opens the terminal chat page against responder and blocks until the
// user quits or ctx is cancelled. Replies still in flight at that point are
// cancelled and awaited.
func Run(ctx context.Context, responder widget.Responder, opts ...widget.Option) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	screen := NewScreen()
	opts = append(opts, widget.WithContext(ctx))
	ctrl := widget.New(screen, responder, opts...)

	p := tea.NewProgram(NewModel(screen, ctrl),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	cancel()
	ctrl.Wait()
	return err
}
