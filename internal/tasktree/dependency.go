package tasktree

import (
	"golang.org/x/exp/constraints"

	"github.com/burstloop/pfor/internal/prange"
)

// Kind identifies which synchronization rule a Dependency enforces.
type Kind int

const (
	// NoSync applies no ordering constraint at all.
	NoSync Kind = iota
	// OneOnOne requires that point p in the current loop observe the
	// completion of point p in the previous loop, restricted to the
	// intersection of the two ranges.
	OneOnOne
	// NeighborhoodSync requires that point p observe the completion of
	// every point p' in the previous loop's range with a Chebyshev
	// distance of at most 1 from p.
	NeighborhoodSync
)

// Dependency binds a prior loop's task tree to the current loop under one
// of the synchronization kinds above. The zero value is NoSync.
type Dependency[T constraints.Integer] struct {
	Kind     Kind
	PrevRoot *Node[T]
}

// Dim returns the dimensionality of the dependency's prior loop, or -1 for
// a NoSync dependency with no prior root.
func (d Dependency[T]) Dim() int {
	if d.PrevRoot == nil {
		return -1
	}
	return d.PrevRoot.Range.Dim()
}

// Resolve returns the covering antichain of prior task nodes that a leaf
// covering subR must await before running its body.
func (d Dependency[T]) Resolve(subR prange.Range[T]) []*Node[T] {
	switch d.Kind {
	case NoSync:
		return nil
	case OneOnOne:
		q := subR.Intersect(d.PrevRoot.Range)
		if q.Empty() {
			return nil
		}
		return descend(d.PrevRoot, q)
	case NeighborhoodSync:
		one := T(1)
		q := subR.Grow(d.PrevRoot.Range, one).Intersect(d.PrevRoot.Range)
		if q.Empty() {
			return nil
		}
		return descend(d.PrevRoot, q)
	default:
		return nil
	}
}

// descend walks n's subtree, pruning branches that don't intersect q and
// stopping as soon as a node's range is fully covered by q (awaiting that
// node's completion covers every point it could contribute). A leaf that
// only partially overlaps q is still added: it is the finest granularity
// available, and its range's completion still covers the overlapping
// points.
func descend[T constraints.Integer](n *Node[T], q prange.Range[T]) []*Node[T] {
	if n == nil {
		return nil
	}
	if n.Range.Intersect(q).Empty() {
		return nil
	}
	if n.Range.Within(q) || n.Leaf() {
		return []*Node[T]{n}
	}
	var out []*Node[T]
	out = append(out, descend(n.Left, q)...)
	out = append(out, descend(n.Right, q)...)
	return out
}
