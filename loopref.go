package pfor

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"golang.org/x/exp/constraints"

	"github.com/burstloop/pfor/internal/tasktree"
)

// LoopRef is the handle a loop constructor returns: an asynchronous
// reference to the task tree executing the loop's body. The zero value is
// not usable; obtain one from For, ForRange, or ForSlice.
type LoopRef[T constraints.Integer] struct {
	root       *tasktree.Node[T]
	cancel     context.CancelFunc
	waited     chan struct{}
	waitedOnce sync.Once
}

func newLoopRef[T constraints.Integer](root *tasktree.Node[T], cancel context.CancelFunc) *LoopRef[T] {
	ref := &LoopRef[T]{root: root, cancel: cancel, waited: make(chan struct{})}
	runtime.SetFinalizer(ref, finalizeLoopRef[T])
	return ref
}

// finalizeLoopRef is a best-effort leak diagnostic, not a correctness
// mechanism: Go has no scope-exit hook to reproduce the reference
// implementation's implicit wait, so an un-awaited LoopRef only surfaces a
// log line once it is garbage collected, which may be arbitrarily late or
// never.
func finalizeLoopRef[T constraints.Integer](ref *LoopRef[T]) {
	select {
	case <-ref.waited:
	default:
		slog.Default().Warn("pfor: LoopRef garbage collected without a call to Wait")
	}
}

// Wait blocks until every point in the loop's range has been processed (or
// a body/engine failure has occurred), and returns the joined error. Wait
// is idempotent and safe to call from multiple goroutines, and from a
// deferred call.
func (r *LoopRef[T]) Wait() error {
	err := r.root.Wait()
	r.cancel()
	r.waitedOnce.Do(func() { close(r.waited) })
	if err != nil {
		return &BodyFailure{Err: err}
	}
	return nil
}

// node exposes the underlying task tree to dependency constructors within
// this package without widening the public surface.
func (r *LoopRef[T]) node() *tasktree.Node[T] {
	return r.root
}
