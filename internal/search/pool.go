package search

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/panics"
)

// ErrPoolClosed is returned by Submit after Close.
var ErrPoolClosed = errors.New("search pool is closed")

// Task is the completion handle of a submitted job.
type Task struct {
	done chan struct{}
}

// Done is closed once the job has returned (or panicked).
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the job has finished.
func (t *Task) Wait() {
	<-t.done
}

type job struct {
	fn   func()
	task *Task
}

// Pool is a fixed set of worker goroutines shared by every search for the
// lifetime of the process.
type Pool struct {
	jobs      chan job
	quit      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
	size      int
	logger    zerolog.Logger
}

// NewPool starts workers goroutines; workers <= 0 means one per CPU.
func NewPool(workers int, logger zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	p := &Pool{
		jobs:   make(chan job),
		quit:   make(chan struct{}),
		size:   workers,
		logger: logger.With().Str("component", "search-pool").Logger(),
	}

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker(i)
	}

	p.logger.Debug().Int("workers", workers).Msg("Started search pool")
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return p.size
}

// Submit hands fn to an idle worker, blocking while every worker is busy.
// It fails when ctx is done or the pool has been closed.
func (p *Pool) Submit(ctx context.Context, fn func()) (*Task, error) {
	select {
	case <-p.quit:
		return nil, ErrPoolClosed
	default:
	}

	t := &Task{done: make(chan struct{})}
	select {
	case p.jobs <- job{fn: fn, task: t}:
		return t, nil
	case <-p.quit:
		return nil, ErrPoolClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops accepting jobs and waits for running jobs to return.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.quit)
	})
	p.wg.Wait()
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.quit:
			return
		case j := <-p.jobs:
			p.run(id, j)
		}
	}
}

func (p *Pool) run(id int, j job) {
	defer close(j.task.done)

	var pc panics.Catcher
	pc.Try(j.fn)
	if r := pc.Recovered(); r != nil {
		p.logger.Error().
			Err(r.AsError()).
			Int("worker", id).
			Msg("Search job panicked")
	}
}
