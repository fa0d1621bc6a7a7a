// Package tasktree implements the task tree produced by recursively
// subdividing a loop's iteration range, and the dependency descent that
// lets a later loop wait on only the fragments of an earlier loop's tree
// that its own sub-ranges (or neighborhoods) actually intersect.
package tasktree

import (
	"golang.org/x/exp/constraints"

	"github.com/burstloop/pfor/internal/engine"
	"github.com/burstloop/pfor/internal/prange"
)

// Node is one node of the binary tree produced by recursively splitting a
// loop's range. A leaf has no children; an internal node's completion is
// the composition of its children's completions. A Node is owned
// exclusively by its parent; the root is owned by the loop reference that
// created it.
type Node[T constraints.Integer] struct {
	Range      prange.Range[T]
	Left       *Node[T]
	Right      *Node[T]
	completion *engine.Future
}

// New allocates a task node for the given range. Its completion must be
// attached separately via SetCompletion once the scheduler knows how the
// node's work will be carried out (leaf spawn vs. child composition).
func New[T constraints.Integer](r prange.Range[T]) *Node[T] {
	return &Node[T]{Range: r}
}

// SetCompletion attaches the one-shot completion signal the Task Engine
// fulfills once this node's subtree finishes.
func (n *Node[T]) SetCompletion(f *engine.Future) {
	n.completion = f
}

// Wait blocks until this node's subtree has completed, returning the first
// (possibly joined) error observed. It is idempotent and safe to call from
// multiple goroutines.
func (n *Node[T]) Wait() error {
	return n.completion.Wait()
}

// Completion returns the node's completion future, for composing a
// parent's completion from its children's (internal to the scheduler; not
// part of the public surface).
func (n *Node[T]) Completion() *engine.Future {
	return n.completion
}

// Leaf reports whether n has no children.
func (n *Node[T]) Leaf() bool {
	return n.Left == nil && n.Right == nil
}
