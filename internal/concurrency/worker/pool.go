package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"pricesync/internal/domain/model"
)

var (
	ErrQueueFull  = errors.New("job queue is full")
	ErrPoolClosed = errors.New("job pool is closed")
)

// Runner executes one job request.
type Runner interface {
	Run(ctx context.Context, req model.JobRequest) error
}

// Pool runs submitted jobs on a fixed number of workers behind a bounded
// queue. Submit never blocks: a full queue is reported to the caller.
type Pool struct {
	workers int
	runner  Runner
	logger  *slog.Logger
	queue   chan model.JobRequest

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewPool(workers, queueSize int, runner Runner, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Pool{
		workers: workers,
		runner:  runner,
		logger:  logger,
		queue:   make(chan model.JobRequest, queueSize),
	}
}

// Start launches the workers and returns the channel of finished runs.
// The channel is closed after Stop once every worker has exited; the caller
// must keep draining it.
func (p *Pool) Start(ctx context.Context) <-chan model.JobResult {
	out := make(chan model.JobResult)

	p.wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go func(id int) {
			defer p.wg.Done()
			p.workerLoop(ctx, id, out)
		}(i)
	}

	go func() {
		p.wg.Wait()
		close(out)
	}()

	return out
}

// Submit enqueues req without blocking.
func (p *Pool) Submit(req model.JobRequest) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.queue <- req:
		p.logger.Debug("job queued", "job", req.Job, "run_id", req.RunID)
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop refuses new submissions and lets the workers finish what is queued.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Pool) workerLoop(ctx context.Context, id int, out chan<- model.JobResult) {
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-p.queue:
			if !ok {
				return
			}
			err := p.runner.Run(ctx, req)
			if err != nil {
				p.logger.Debug("worker: job returned error", "worker", id, "job", req.Job, "run_id", req.RunID, "error", err)
			}

			select {
			case <-ctx.Done():
				return
			case out <- model.JobResult{Request: req, Err: err}:
			}
		}
	}
}
