package pfor

import (
	"context"
	"errors"

	"golang.org/x/exp/constraints"

	"github.com/burstloop/pfor/internal/prange"
	"github.com/burstloop/pfor/internal/scheduler"
	"github.com/burstloop/pfor/internal/tasktree"
)

// Point is a coordinate in a D-dimensional iteration space, re-exported
// from internal/prange so callers of ForRange never need to import an
// internal package.
type Point[T constraints.Integer] = prange.Point[T]

// Dependency binds a prior loop to the current one under one of three
// synchronization kinds: NoSync, OneOnOne, NeighborhoodSync. The zero
// value is NoSync; use OneOnOne or NeighborhoodSync below to build the
// other two.
type Dependency[T constraints.Integer] = tasktree.Dependency[T]

// Pt builds a Point from its components, for use with ForRange.
func Pt[T constraints.Integer](vals ...T) Point[T] {
	return prange.Pt(vals...)
}

// For runs body once for every integer in [from, to), returning a LoopRef
// immediately. An optional Dependency constrains how the current loop
// orders against a single prior loop; omitted, the loop runs with NoSync.
func For[T constraints.Integer](from, to T, body func(T) error, dep ...Dependency[T]) (*LoopRef[T], error) {
	return ForRange(prange.Pt(from), prange.Pt(to), func(p Point[T]) error {
		return body(p[0])
	}, dep...)
}

// ForRange runs body once for every point in the half-open box
// [from, to), recursively subdividing the box into a tree of parallel
// tasks. from and to must share a dimensionality.
func ForRange[T constraints.Integer](from, to Point[T], body func(Point[T]) error, dep ...Dependency[T]) (*LoopRef[T], error) {
	if !prange.SameDim(from, to) {
		return nil, &InvalidDependencyError{Reason: "from and to have different dimensionality"}
	}
	d, err := resolveDep(dep, from.Dim())
	if err != nil {
		return nil, err
	}

	eng := DefaultEngine()
	if eng == nil {
		return nil, &EngineFailure{Err: errors.New("pfor: no Task Engine configured (SetEngine was called with nil)")}
	}

	r := prange.New(from, to)
	ctx, cancel := newLoopContext()

	root := scheduler.Schedule(ctx, cancel, eng, r, scheduler.Body[T](body), d, currentGrain())
	return newLoopRef(root, cancel), nil
}

// ForSlice runs body once for every element of s, passing the element's
// index and a pointer to it so body may mutate s in place. It is a thin
// convenience wrapper over For[int].
func ForSlice[E any](s []E, body func(int, *E) error, dep ...Dependency[int]) (*LoopRef[int], error) {
	return For(0, len(s), func(i int) error {
		return body(i, &s[i])
	}, dep...)
}

// OneOnOne builds a Dependency requiring that point p in the next loop
// observe the completion of point p in prev, restricted to the
// intersection of the two loops' ranges. prev must have been created by a
// loop of the same dimensionality as the loop this dependency is passed
// to; that agreement is checked when the dependency is actually used, not
// here, since prev's consumer isn't known yet.
func OneOnOne[T constraints.Integer](prev *LoopRef[T]) (Dependency[T], error) {
	if prev == nil || prev.node() == nil {
		return Dependency[T]{}, &InvalidDependencyError{Reason: "prev loop reference is nil"}
	}
	return Dependency[T]{Kind: tasktree.OneOnOne, PrevRoot: prev.node()}, nil
}

// NeighborhoodSync builds a Dependency requiring that point p in the next
// loop observe the completion of every point within Chebyshev distance 1
// of p in prev's range.
func NeighborhoodSync[T constraints.Integer](prev *LoopRef[T]) (Dependency[T], error) {
	if prev == nil || prev.node() == nil {
		return Dependency[T]{}, &InvalidDependencyError{Reason: "prev loop reference is nil"}
	}
	return Dependency[T]{Kind: tasktree.NeighborhoodSync, PrevRoot: prev.node()}, nil
}

// resolveDep validates the optional trailing dependency argument (the Go
// idiom for an optional parameter): only the first one is used and any
// further ones are ignored. If present and not NoSync, it must carry a
// prior loop, and that loop must share the current loop's dimensionality.
func resolveDep[T constraints.Integer](dep []Dependency[T], dim int) (Dependency[T], error) {
	if len(dep) == 0 {
		return Dependency[T]{}, nil
	}
	d := dep[0]
	if d.Kind != tasktree.NoSync && d.PrevRoot == nil {
		return Dependency[T]{}, &InvalidDependencyError{Reason: "dependency has no prior loop reference"}
	}
	if d.Kind != tasktree.NoSync && d.PrevRoot != nil && d.PrevRoot.Range.Dim() != dim {
		return Dependency[T]{}, &InvalidDependencyError{Reason: "dependency's prior loop has different dimensionality"}
	}
	return d, nil
}

// newLoopContext returns the cancelable context each top-level loop call
// runs under. The scheduler cancels it the first time any leaf's body
// fails, so sibling leaves still waiting on a throttle slot or a
// dependency can short-circuit instead of running to no purpose. The
// returned cancel is retained by the LoopRef and invoked once Wait
// observes the loop has finished, releasing the context's resources
// either way.
func newLoopContext() (context.Context, context.CancelFunc) {
	return context.WithCancel(context.Background())
}
