// Package engine is a thin, intentionally minimal boundary between the
// recursive scheduler and a concurrent executor. It provides exactly
// Spawn, Throttle, and WhenAll; any implementation of the same
// three-operation contract is an acceptable substitute for an opaque
// task-executing collaborator.
package engine

import "sync"

// Future is a one-shot completion signal: it starts unfulfilled, is
// fulfilled exactly once with an error value (nil on success), and can be
// waited on any number of times, from any number of goroutines, before or
// after fulfillment.
type Future struct {
	done chan struct{}
	once sync.Once
	err  error
}

// NewFuture returns an unfulfilled Future.
func NewFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Completed returns an already-fulfilled Future carrying err.
func Completed(err error) *Future {
	f := NewFuture()
	f.fulfill(err)
	return f
}

func (f *Future) fulfill(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Wait blocks until f is fulfilled and returns its error.
func (f *Future) Wait() error {
	<-f.done
	return f.err
}
