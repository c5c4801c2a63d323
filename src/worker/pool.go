package worker

import (
	"context"
	"log"
	"runtime"
	"sync"
)

// Pool is a fixed-size worker pool with a 1-slot input queue. A pool of size
// one serializes every call made through it, which is how engine handles that
// are not reentrant are guarded.
type Pool struct {
	name      string
	jobs      chan job
	wg        sync.WaitGroup
	closeOnce sync.Once
}

type job struct {
	ctx  context.Context
	fn   func(ctx context.Context)
	done chan struct{}
}

// New creates a worker pool. Size defaults to NumCPU when size<=0. Queue is 1 slot.
func New(name string, size int) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	p := &Pool{name: name, jobs: make(chan job, 1)}
	p.start(size)
	return p
}

func (p *Pool) start(n int) {
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for j := range p.jobs {
				if j.ctx.Err() != nil {
					log.Printf("Worker[%s]: dropping job, caller gone: %v", p.name, j.ctx.Err())
					close(j.done)
					continue
				}
				j.fn(j.ctx)
				close(j.done)
			}
		}()
	}
}

// Do runs fn on a pool worker and waits for it. If ctx ends first Do returns
// ctx.Err(); a job that already started keeps running in the background and
// still holds its worker until it returns.
func (p *Pool) Do(ctx context.Context, fn func(ctx context.Context)) error {
	j := job{ctx: ctx, fn: fn, done: make(chan struct{})}
	select {
	case p.jobs <- j:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-j.done:
		return nil
	case <-ctx.Done():
		log.Printf("Worker[%s]: caller deadline passed while job running", p.name)
		return ctx.Err()
	}
}

// Call runs fn through p and returns its result.
func Call[T any](ctx context.Context, p *Pool, fn func(ctx context.Context) (T, error)) (T, error) {
	var (
		res T
		err error
	)
	if doErr := p.Do(ctx, func(ctx context.Context) { res, err = fn(ctx) }); doErr != nil {
		var zero T
		return zero, doErr
	}
	return res, err
}

// Close stops the pool after draining current work.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.jobs)
		p.wg.Wait()
	})
}
