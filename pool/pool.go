package pool

import (
	"context"
	"sync"
)

// Pool is a bounded worker pool for fan-out/fan-in sub-tasks. It is created
// once at the composition root and shared by every component that dispatches
// parallel work; submitting more tasks than workers queues rather than fails.
type Pool struct {
	sem chan struct{}
}

// Task is a unit of work executed on the pool.
type Task func(ctx context.Context) error

// New creates a pool with the given number of workers.
func New(size int) *Pool {
	if size <= 0 {
		size = 4
	}
	return &Pool{
		sem: make(chan struct{}, size),
	}
}

// Size returns the worker count.
func (p *Pool) Size() int {
	return cap(p.sem)
}

// Run dispatches all tasks concurrently, each gated by the worker semaphore,
// and waits for every task to finish. The first non-nil error is returned;
// remaining tasks still run to completion so partial results stay usable.
func (p *Pool) Run(ctx context.Context, tasks ...Task) error {
	if len(tasks) == 0 {
		return nil
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	record := func(err error) {
		if err == nil {
			return
		}
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	for _, task := range tasks {
		wg.Add(1)
		go func(t Task) {
			defer wg.Done()

			select {
			case p.sem <- struct{}{}:
				defer func() { <-p.sem }()
			case <-ctx.Done():
				record(ctx.Err())
				return
			}

			record(t(ctx))
		}(task)
	}

	wg.Wait()
	return firstErr
}
