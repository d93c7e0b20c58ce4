// Package dispatch runs blocking decode/VAD/ASR work off the I/O goroutine
// through a small bounded worker pool, so a slow inference call never stalls
// request handling or WebSocket pumps.
package dispatch

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Pool bounds how many blocking calls may run concurrently.
type Pool struct {
	sem *semaphore.Weighted
}

// New returns a Pool that allows at most maxConcurrent blocking calls to run
// at once.
func New(maxConcurrent int64) *Pool {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Pool{sem: semaphore.NewWeighted(maxConcurrent)}
}

// Run acquires a slot, runs fn on a new goroutine that holds the slot until
// fn returns, and returns fn's result. It blocks the caller until fn
// completes or ctx is canceled; on cancellation it returns ctx.Err() while
// fn keeps running and keeps its slot until it finishes.
func Run[T any](ctx context.Context, p *Pool, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	if err := p.sem.Acquire(ctx, 1); err != nil {
		return zero, err
	}

	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)

	go func() {
		defer p.sem.Release(1)
		v, err := fn(ctx)
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.val, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
