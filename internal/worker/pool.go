package worker

import (
	"context"
	"sync"
)

// Job is one unit of work run by a Pool
type Job interface {
	Execute(ctx context.Context) Result
}

// Result is what a Job produces
type Result interface {
	GetError() error
}

// Pool runs submitted jobs on a fixed number of goroutines until its context ends
type Pool struct {
	size    int
	jobs    chan Job
	results chan Result
	running sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc

	closeJobs    sync.Once
	closeResults sync.Once
}

// NewPool creates a stopped pool bound to ctx. size < 1 means one goroutine.
func NewPool(ctx context.Context, size int) *Pool {
	size = max(size, 1)
	ctx, cancel := context.WithCancel(ctx)
	return &Pool{
		size:    size,
		jobs:    make(chan Job, size*2),
		results: make(chan Result, size*2),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the pool's goroutines
func (p *Pool) Start() {
	p.running.Add(p.size)
	for range p.size {
		go p.loop()
	}
}

func (p *Pool) loop() {
	defer p.running.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok || p.ctx.Err() != nil {
				return
			}
			select {
			case p.results <- job.Execute(p.ctx):
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit queues a job and reports false once the pool's context is done.
// It must not be called after Close.
func (p *Pool) Submit(job Job) bool {
	select {
	case <-p.ctx.Done():
		return false
	case p.jobs <- job:
		return true
	}
}

// Close ends submission. Results closes after the queued jobs finish.
func (p *Pool) Close() {
	p.closeJobs.Do(func() {
		close(p.jobs)
		go func() {
			p.running.Wait()
			p.finish()
		}()
	})
}

// Results yields job results in completion order
func (p *Pool) Results() <-chan Result {
	return p.results
}

// Shutdown cancels running jobs and waits for the goroutines to exit
func (p *Pool) Shutdown() {
	p.cancel()
	p.running.Wait()
	p.finish()
}

func (p *Pool) finish() {
	p.closeResults.Do(func() { close(p.results) })
}
