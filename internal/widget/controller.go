// Package widget holds the chat widget controller: it moves text from an input
// field into an append-only log, asks a responder for a reply and appends the
// reply when it arrives.
package widget

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"moodchat/internal/models"
)

// View is the page surface the controller writes to. Append, ScrollToBottom
// and ClearInput may be called from the goroutine that received a reply, so
// implementations must be safe for concurrent use.
type View interface {
	InputValue() string
	ClearInput()
	Append(msg models.ChatMessage)
	ScrollToBottom()
}

// Responder produces the bot reply for a raw user message.
type Responder interface {
	Reply(ctx context.Context, text string) (string, error)
}

// ResponderFunc adapts a function to Responder.
type ResponderFunc func(ctx context.Context, text string) (string, error)

func (f ResponderFunc) Reply(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}

type Option func(*Controller)

// WithOrderedReplies renders bot replies in send order. Without it a later
// message can be answered first and its reply lands in the log first.
func WithOrderedReplies() Option {
	return func(c *Controller) {
		c.ordered = true
	}
}

// WithLogger sets the logger used for failed exchanges.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithContext sets the parent context of every exchange.
func WithContext(ctx context.Context) Option {
	return func(c *Controller) {
		if ctx != nil {
			c.ctx = ctx
		}
	}
}

type settled struct {
	text string
	ok   bool
}

// Controller is the chat widget controller. It owns no state besides the
// sequence bookkeeping used for ordered replies; the log lives in the View.
type Controller struct {
	view      View
	responder Responder
	logger    zerolog.Logger
	ctx       context.Context
	ordered   bool

	wg sync.WaitGroup

	mu       sync.Mutex
	nextSeq  uint64
	flushSeq uint64
	pending  map[uint64]settled
}

// New constructs a Controller bound to a view and a responder.
func New(view View, responder Responder, opts ...Option) *Controller {
	c := &Controller{
		view:      view,
		responder: responder,
		logger:    log.Logger,
		ctx:       context.Background(),
		pending:   make(map[uint64]settled),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With().Str("component", "widget").Logger()
	return c
}

// Submit sends the current input. Blank input is ignored. Otherwise the raw
// text is appended as a user message, the input is cleared and the reply is
// fetched in the background. Failed exchanges leave no trace in the log.
func (c *Controller) Submit() {
	text := c.view.InputValue()
	if strings.TrimSpace(text) == "" {
		return
	}

	c.view.Append(models.UserMessage(text))
	c.view.ClearInput()

	c.mu.Lock()
	seq := c.nextSeq
	c.nextSeq++
	c.mu.Unlock()

	c.wg.Add(1)
	go c.exchange(seq, text)
}

// Wait blocks until every submitted exchange has settled.
func (c *Controller) Wait() {
	c.wg.Wait()
}

func (c *Controller) exchange(seq uint64, text string) {
	defer c.wg.Done()

	reply, err := c.responder.Reply(c.ctx, text)
	if err != nil {
		c.logger.Debug().Err(err).Uint64("seq", seq).Msg("exchange failed")
		c.settle(seq, settled{})
		return
	}
	c.settle(seq, settled{text: reply, ok: true})
}

func (c *Controller) settle(seq uint64, result settled) {
	if !c.ordered {
		if result.ok {
			c.render(result.text)
		}
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending[seq] = result
	for {
		next, ok := c.pending[c.flushSeq]
		if !ok {
			return
		}
		delete(c.pending, c.flushSeq)
		c.flushSeq++
		if next.ok {
			c.render(next.text)
		}
	}
}

func (c *Controller) render(text string) {
	c.view.Append(models.BotMessage(text))
	c.view.ScrollToBottom()
}
