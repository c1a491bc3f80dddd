package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moodchat/internal/models"
	"moodchat/internal/widget"
)

func typeText(m tea.Model, text string) tea.Model {
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return m
}

func TestEnterSubmitsThroughController(t *testing.T) {
	screen := NewScreen()
	ctrl := widget.New(screen, widget.ResponderFunc(func(ctx context.Context, text string) (string, error) {
		return "Hello!", nil
	}))
	var m tea.Model = NewModel(screen, ctrl)
	m, _ = m.Update(tea.WindowSizeMsg{Width: 60, Height: 12})

	m = typeText(m, "Hi")
	assert.Equal(t, "Hi", screen.InputValue())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "", screen.InputValue())
	ctrl.Wait()

	assert.Equal(t, []models.ChatMessage{models.UserMessage("Hi"), models.BotMessage("Hello!")}, screen.Messages())
	assert.True(t, screen.AtBottom())

	view := m.View()
	assert.Contains(t, view, "Hi")
	assert.Contains(t, view, "Hello!")
}

func TestBlankEnterDoesNothing(t *testing.T) {
	screen := NewScreen()
	called := false
	ctrl := widget.New(screen, widget.ResponderFunc(func(ctx context.Context, text string) (string, error) {
		called = true
		return "", nil
	}))
	var m tea.Model = NewModel(screen, ctrl)

	m = typeText(m, "   ")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	ctrl.Wait()

	assert.Empty(t, screen.Messages())
	assert.False(t, called)
}

func TestTypingDoesNotScroll(t *testing.T) {
	screen := NewScreen()
	var m tea.Model = NewModel(screen, widget.New(screen, widget.ResponderFunc(func(context.Context, string) (string, error) {
		return "", nil
	})))
	m, _ = m.Update(tea.WindowSizeMsg{Width: 40, Height: 8})
	for i := 0; i < 20; i++ {
		screen.Append(models.BotMessage("line"))
	}
	screen.ScrollToBottom()
	require.True(t, screen.AtBottom())

	typeText(m, "jk f")
	assert.True(t, screen.AtBottom())
	assert.Equal(t, "jk f", screen.InputValue())
}

func TestAsyncAppendWakesProgram(t *testing.T) {
	screen := NewScreen()
	m := NewModel(screen, nil)
	cmd := waitForChange(screen.Changed())

	go screen.Append(models.BotMessage("late reply"))

	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	select {
	case msg := <-done:
		_, ok := msg.(refreshMsg)
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("screen change did not wake the program")
	}

	_, next := m.Update(refreshMsg{})
	assert.NotNil(t, next, "refresh must re-arm the wait")
}

func TestQuitKeys(t *testing.T) {
	screen := NewScreen()
	m := NewModel(screen, nil)
	for _, k := range []tea.KeyType{tea.KeyCtrlC, tea.KeyEsc} {
		_, cmd := m.Update(tea.KeyMsg{Type: k})
		require.NotNil(t, cmd)
		_, isQuit := cmd().(tea.QuitMsg)
		assert.True(t, isQuit)
	}
}

func TestRenderLabelsOrigins(t *testing.T) {
	screen := NewScreen()
	screen.Append(models.UserMessage("ping"))
	screen.Append(models.BotMessage("pong"))

	out := screen.view()
	userAt := strings.Index(out, "ping")
	botAt := strings.Index(out, "pong")
	require.True(t, userAt >= 0 && botAt >= 0)
	assert.Less(t, userAt, botAt)
	assert.Contains(t, out, "you")
	assert.Contains(t, out, "bot")
}
