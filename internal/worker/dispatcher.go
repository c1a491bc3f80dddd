// Package worker runs replies on a bounded, elastic pool of goroutines so a
// slow responder cannot pile up unbounded work behind the HTTP handlers.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// ErrBusy is returned when the job queue is full.
	ErrBusy = errors.New("dispatcher busy")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("dispatcher closed")
)

type Config struct {
	MinWorkers  int
	MaxWorkers  int
	QueueSize   int
	IdleTimeout time.Duration
}

type Dispatcher struct {
	pool     *jobChannelPool
	jobQueue chan Job
	logger   zerolog.Logger

	mu      sync.RWMutex
	closed  bool
	quit    chan struct{}
	runDone chan struct{}
}

func NewDispatcher(cfg Config, fn ReplyFunc) *Dispatcher {
	d := &Dispatcher{
		pool:     newJobChannelPool(cfg.MinWorkers, cfg.MaxWorkers, cfg.IdleTimeout, fn),
		jobQueue: make(chan Job, cfg.QueueSize),
		logger:   log.With().Str("component", "worker").Logger(),
		quit:     make(chan struct{}),
		runDone:  make(chan struct{}),
	}

	for i := 0; i < cfg.MinWorkers; i++ {
		d.pool.spawnWorker()
	}

	go d.run()
	return d
}

// Do queues text for a reply and waits for it. It fails fast with ErrBusy
// when the queue is full and gives up when ctx is done.
func (d *Dispatcher) Do(ctx context.Context, text string) (string, error) {
	job := Job{Type: Reply, ctx: ctx, text: text, resultCh: make(chan result, 1)}

	d.mu.RLock()
	if d.closed {
		d.mu.RUnlock()
		return "", ErrClosed
	}
	select {
	case d.jobQueue <- job:
	default:
		d.mu.RUnlock()
		return "", ErrBusy
	}
	d.mu.RUnlock()

	select {
	case res := <-job.resultCh:
		return res.reply, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (d *Dispatcher) run() {
	defer close(d.runDone)
	for {
		select {
		case job := <-d.jobQueue:
			ch := d.pool.acquire()
			if ch == nil {
				job.resultCh <- result{err: ErrClosed}
				continue
			}
			d.logger.Trace().Str("job", job.Type.String()).Msg("assign job")
			ch <- job
		case <-d.quit:
			return
		}
	}
}

// Close rejects new jobs, fails the queued ones and waits for running
// replies to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()

	close(d.quit)
	d.pool.close()
	<-d.runDone

	for {
		select {
		case job := <-d.jobQueue:
			job.resultCh <- result{err: ErrClosed}
		default:
			return
		}
	}
}
