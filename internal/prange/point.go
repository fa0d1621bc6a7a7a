// Package prange implements the half-open multi-dimensional iteration
// range at the core of the pfor runtime: points, ranges, and the pure
// operations (split, intersect, grow, shrink) the recursive scheduler and
// dependency resolver are built on.
package prange

import (
	"fmt"
	"strings"

	"golang.org/x/exp/constraints"
)

// Point is a coordinate in a D-dimensional iteration space, D = len(Point).
// A 1-D loop uses a length-1 Point.
type Point[T constraints.Integer] []T

// Pt builds a Point from its components.
func Pt[T constraints.Integer](vals ...T) Point[T] {
	p := make(Point[T], len(vals))
	copy(p, vals)
	return p
}

// Dim returns the dimensionality of the point.
func (p Point[T]) Dim() int { return len(p) }

// Equal reports component-wise equality.
func (p Point[T]) Equal(o Point[T]) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// LessEq reports whether p <= o component-wise.
func (p Point[T]) LessEq(o Point[T]) bool {
	for i := range p {
		if p[i] > o[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of p.
func (p Point[T]) Clone() Point[T] {
	c := make(Point[T], len(p))
	copy(c, p)
	return c
}

// String renders p as "[c0,c1,...]".
func (p Point[T]) String() string {
	parts := make([]string, len(p))
	for i, v := range p {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// SameDim reports whether a and b share a dimensionality, used to detect
// an invalid dependency before any task is scheduled.
func SameDim[T constraints.Integer](a, b Point[T]) bool {
	return len(a) == len(b)
}

var _ fmt.Stringer = Point[int]{}
