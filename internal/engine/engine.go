package engine

import (
	"context"
	"errors"
	"runtime"

	"golang.org/x/sync/semaphore"
)

// Task is a zero-argument action that may fail.
type Task func() error

// Engine is the concrete Task Engine: an unbounded pool of goroutines for
// dependency-wait tasks, gated by a weighted semaphore for the CPU-bound
// work those tasks eventually perform. Keeping the wait unbounded and the
// work bounded is what avoids the deadlock a fixed worker-pool-with-
// blocking-joins design would hit once enough workers park waiting on a
// loop whose own leaves need a free worker to run (see DESIGN.md).
type Engine struct {
	sem *semaphore.Weighted
}

// New returns an Engine that permits at most concurrency simultaneous
// Throttle-gated task bodies. concurrency <= 0 defaults to
// runtime.GOMAXPROCS(0).
func New(concurrency int) *Engine {
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	return &Engine{sem: semaphore.NewWeighted(int64(concurrency))}
}

// Spawn starts t on its own goroutine and returns a Future fulfilled with
// t's result. Spawn never blocks the caller.
func (e *Engine) Spawn(t Task) *Future {
	f := NewFuture()
	go func() {
		f.fulfill(t())
	}()
	return f
}

// Throttle runs t after acquiring a concurrency permit, blocking until one
// is available or ctx is done. Unlike Spawn, Throttle runs synchronously on
// the calling goroutine: callers combine it with Spawn to get an
// asynchronous, concurrency-bounded task.
func (e *Engine) Throttle(ctx context.Context, t Task) error {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer e.sem.Release(1)
	return t()
}

// WhenAll returns a Future that is fulfilled once every future in futures
// is fulfilled, with an error that joins every non-nil error observed
// (joined-result semantics rather than process abort on first failure).
func (e *Engine) WhenAll(futures ...*Future) *Future {
	if len(futures) == 0 {
		return Completed(nil)
	}
	out := NewFuture()
	go func() {
		var errs []error
		for _, f := range futures {
			if err := f.Wait(); err != nil {
				errs = append(errs, err)
			}
		}
		out.fulfill(errors.Join(errs...))
	}()
	return out
}
