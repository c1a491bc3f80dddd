package widget

import (
	"sync"

	"moodchat/internal/models"
)

// Log is a headless View: an input buffer and an append-only message log with
// a scroll position.
type Log struct {
	mu        sync.Mutex
	input     string
	messages  []models.ChatMessage
	scrollTop int
}

func NewLog() *Log {
	return &Log{}
}

// SetInput replaces the input buffer, as typing would.
func (l *Log) SetInput(text string) {
	l.mu.Lock()
	l.input = text
	l.mu.Unlock()
}

func (l *Log) InputValue() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.input
}

func (l *Log) ClearInput() {
	l.SetInput("")
}

func (l *Log) Append(msg models.ChatMessage) {
	l.mu.Lock()
	l.messages = append(l.messages, msg)
	l.mu.Unlock()
}

// ScrollToBottom moves the viewport to the last message.
func (l *Log) ScrollToBottom() {
	l.mu.Lock()
	l.scrollTop = len(l.messages)
	l.mu.Unlock()
}

// ScrolledToBottom reports whether the newest message is in view.
func (l *Log) ScrolledToBottom() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.scrollTop == len(l.messages)
}

// Messages returns a copy of the log in append order.
func (l *Log) Messages() []models.ChatMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.ChatMessage, len(l.messages))
	copy(out, l.messages)
	return out
}
