// Package pfor implements a parallel-for runtime with structured
// dependency synchronization: it executes an indexed body function over a
// multi-dimensional iteration range by recursively subdividing the range
// into a tree of parallel tasks, while letting successive parallel loops
// express point-level or local-neighborhood happens-before constraints on
// a single prior loop without serializing at whole-loop barriers.
//
// The three loop constructors cover integer scalars, multi-dimensional
// points, and in-place slice iteration:
//
//	ref, err := pfor.For(0, n, func(i int) error { data[i]++; return nil })
//	ref.Wait()
//
//	dep, _ := pfor.OneOnOne(ref)
//	ref2, _ := pfor.For(0, n, func(i int) error { ...; return nil }, dep)
//
// A LoopRef is asynchronous: it returns immediately and the caller must
// call Wait (directly or via defer) before relying on the loop's effects.
package pfor
