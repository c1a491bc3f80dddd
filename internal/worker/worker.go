package worker

import "context"

type JobType int

const (
	Reply JobType = iota
	Stop
)

func (t JobType) String() string {
	if t == Stop {
		return "stop"
	}
	return "reply"
}

// ReplyFunc computes the reply for one message.
type ReplyFunc func(ctx context.Context, text string) (string, error)

type Job struct {
	Type     JobType
	ctx      context.Context
	text     string
	resultCh chan result
}

type result struct {
	reply string
	err   error
}

type Worker struct {
	pool       *jobChannelPool
	fn         ReplyFunc
	jobChannel chan Job
}

func newWorker(pool *jobChannelPool, fn ReplyFunc) *Worker {
	return &Worker{
		pool:       pool,
		fn:         fn,
		jobChannel: make(chan Job),
	}
}

func (w *Worker) Start() {
	w.pool.wg.Add(1)
	go func() {
		defer w.pool.wg.Done()
		for job := range w.jobChannel {
			if job.Type == Stop {
				w.pool.retire(w.jobChannel)
				return
			}
			reply, err := w.fn(job.ctx, job.text)
			job.resultCh <- result{reply: reply, err: err}
			if !w.pool.Release(w.jobChannel) {
				w.pool.retire(w.jobChannel)
				return
			}
		}
	}()
}
