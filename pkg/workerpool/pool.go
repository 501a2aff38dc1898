// Package workerpool provides a bounded goroutine pool with backpressure,
// plus RunAll for "fire a batch, wait for every task to settle" workloads
// such as writing all specification values of one submission.
//
//	pool := workerpool.New(8)
//	defer pool.Shutdown()
//
//	errs := pool.RunAll(ctx, []workerpool.Task{
//	    func(ctx context.Context) error { return writeA(ctx) },
//	    func(ctx context.Context) error { return writeB(ctx) },
//	})
//	// errs[i] is the result of task i
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrPoolClosed is returned by SubmitWait after Shutdown has been called.
var ErrPoolClosed = errors.New("workerpool: pool is closed")

// Task is one unit of batch work.
type Task func(ctx context.Context) error

// Pool is a bounded goroutine pool.
type Pool struct {
	tasks  chan func()
	wg     sync.WaitGroup
	once   sync.Once
	mu     sync.RWMutex
	closed bool
}

// New creates a Pool with the given number of workers.
// size <= 0 is treated as 1.
func New(size int) *Pool {
	if size <= 0 {
		size = 1
	}

	p := &Pool{
		tasks: make(chan func(), size*2),
	}

	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	return p
}

// SubmitWait enqueues task, blocking until a slot is available or ctx is
// done. It returns ErrPoolClosed once Shutdown has been called.
func (p *Pool) SubmitWait(ctx context.Context, task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunAll runs every task on the pool and waits for all of them to settle.
// The returned slice is index-aligned with tasks. A task that could not be
// scheduled, or that panicked, reports that as its error; the other tasks
// are unaffected.
func (p *Pool) RunAll(ctx context.Context, tasks []Task) []error {
	errs := make([]error, len(tasks))

	var wg sync.WaitGroup
	for i, task := range tasks {
		i, task := i, task
		wg.Add(1)
		err := p.SubmitWait(ctx, func() {
			defer wg.Done()
			errs[i] = safeRun(ctx, task)
		})
		if err != nil {
			wg.Done()
			errs[i] = err
		}
	}
	wg.Wait()

	return errs
}

// Shutdown stops accepting new tasks, waits for all in-flight tasks to
// complete, and releases all worker goroutines.
// It is safe to call multiple times.
func (p *Pool) Shutdown() {
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.tasks)
		p.mu.Unlock()
		p.wg.Wait()
	})
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		func() {
			defer func() { recover() }() //nolint:errcheck
			task()
		}()
	}
}

// safeRun executes task, turning a panic into an error so one bad write
// cannot take the batch down.
func safeRun(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("workerpool: task panicked: %v", r)
		}
	}()
	return task(ctx)
}
