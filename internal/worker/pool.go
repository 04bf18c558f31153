package worker

import (
	"context"
	"sync"
)

// Job represents a unit of work to be executed
type Job interface {
	Execute(ctx context.Context) Result
}

// Result represents the result of a job execution
type Result interface {
	GetError() error
}

type indexedJob struct {
	idx int
	job Job
}

// Pool runs jobs on a fixed number of workers. Results come back in
// submission order regardless of completion order.
type Pool struct {
	workers    int
	jobQueue   chan indexedJob
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
	closeOnce  sync.Once

	mu        sync.Mutex
	submitted int
	results   map[int]Result
}

// NewPool creates a new worker pool with the specified number of workers
func NewPool(workers int) *Pool {
	return NewPoolContext(context.Background(), workers)
}

// NewPoolContext creates a pool whose jobs see ctx; cancelling it stops the workers
func NewPoolContext(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)

	return &Pool{
		workers:    workers,
		jobQueue:   make(chan indexedJob, workers*2),
		ctx:        ctx,
		cancelFunc: cancel,
		results:    make(map[int]Result),
	}
}

// Start starts the worker pool
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case ij, ok := <-p.jobQueue:
			if !ok {
				return
			}
			result := ij.job.Execute(p.ctx)
			p.mu.Lock()
			p.results[ij.idx] = result
			p.mu.Unlock()
		}
	}
}

// Submit queues a job. It returns without queuing once the pool is shut down.
// Submitting after Wait panics.
func (p *Pool) Submit(job Job) {
	if p.ctx.Err() != nil {
		return
	}

	p.mu.Lock()
	idx := p.submitted
	p.submitted++
	p.mu.Unlock()

	select {
	case <-p.ctx.Done():
		return
	case p.jobQueue <- indexedJob{idx: idx, job: job}:
	}
}

// Wait waits for all submitted jobs and returns their results in submission
// order. Jobs dropped by a shutdown have no entry.
func (p *Pool) Wait() []Result {
	p.closeQueue()
	p.wg.Wait()
	return p.ordered()
}

// Shutdown stops the workers without waiting for queued jobs. The queue stays
// open so a late Submit returns instead of panicking.
func (p *Pool) Shutdown() {
	p.cancelFunc()
	p.wg.Wait()
}

func (p *Pool) closeQueue() {
	p.closeOnce.Do(func() {
		close(p.jobQueue)
	})
}

func (p *Pool) ordered() []Result {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Result, 0, len(p.results))
	for i := 0; i < p.submitted; i++ {
		if r, ok := p.results[i]; ok {
			out = append(out, r)
		}
	}
	return out
}
