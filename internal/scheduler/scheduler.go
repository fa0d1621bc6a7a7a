// Package scheduler implements the recursive divide-and-conquer driver
// that subdivides a range into a tree of task nodes, submitting leaves to
// the Task Engine once their dependencies (if any) are resolved, and
// composes internal nodes' completions from their children's.
package scheduler

import (
	"context"

	"golang.org/x/exp/constraints"

	"github.com/burstloop/pfor/internal/ctxlog"
	"github.com/burstloop/pfor/internal/engine"
	"github.com/burstloop/pfor/internal/prange"
	"github.com/burstloop/pfor/internal/tasktree"
)

// Body is the per-point action invoked by a leaf task.
type Body[T constraints.Integer] func(prange.Point[T]) error

// Schedule builds and submits the task tree for r, honoring dep, and
// returns its root node. grain is the GRAIN tunable: a node whose range
// has volume <= grain becomes a leaf rather than splitting further. cancel
// is called the first time any leaf's body returns a non-nil error, so
// sibling leaves still waiting on a throttle slot or a dependency can
// short-circuit via ctx.Err() instead of running to no purpose.
func Schedule[T constraints.Integer](
	ctx context.Context,
	cancel context.CancelFunc,
	eng *engine.Engine,
	r prange.Range[T],
	body Body[T],
	dep tasktree.Dependency[T],
	grain uint64,
) *tasktree.Node[T] {
	n := tasktree.New(r)

	if r.Volume() <= grain {
		n.SetCompletion(eng.Spawn(leafTask(ctx, cancel, eng, r, body, dep)))
		return n
	}

	left, right := r.Split()
	n.Left = Schedule(ctx, cancel, eng, left, body, dep, grain)
	if right.Empty() {
		n.SetCompletion(eng.WhenAll(n.Left.Completion()))
		return n
	}
	n.Right = Schedule(ctx, cancel, eng, right, body, dep, grain)
	n.SetCompletion(eng.WhenAll(n.Left.Completion(), n.Right.Completion()))
	return n
}

func leafTask[T constraints.Integer](
	ctx context.Context,
	cancel context.CancelFunc,
	eng *engine.Engine,
	r prange.Range[T],
	body Body[T],
	dep tasktree.Dependency[T],
) engine.Task {
	return func() (err error) {
		defer func() {
			if err != nil {
				cancel()
			}
		}()

		logger := ctxlog.FromContext(ctx)
		if err = ctx.Err(); err != nil {
			return err
		}

		preds := dep.Resolve(r)
		for _, pred := range preds {
			if err = pred.Wait(); err != nil {
				return err
			}
		}
		logger.Debug("leaf ready, awaiting throttle slot", "range", r.String(), "preds", len(preds))

		err = eng.Throttle(ctx, func() error {
			return iterate(r, body)
		})
		return err
	}
}

// iterate invokes body for every point in r in lexicographic order (the
// first dimension varies slowest).
func iterate[T constraints.Integer](r prange.Range[T], body Body[T]) error {
	if r.Empty() {
		return nil
	}
	p := r.From.Clone()
	var rec func(dim int) error
	rec = func(dim int) error {
		if dim == len(p) {
			return body(p.Clone())
		}
		for v := r.From[dim]; v < r.To[dim]; v++ {
			p[dim] = v
			if err := rec(dim + 1); err != nil {
				return err
			}
		}
		p[dim] = r.From[dim]
		return nil
	}
	return rec(0)
}
