package pfor

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burstloop/pfor/internal/engine"
)

func TestForCoversEveryPointExactlyOnce(t *testing.T) {
	data := make([]int, 200)
	ref, err := For(0, len(data), func(i int) error {
		data[i]++
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, ref.Wait())

	ref2, err := For(0, len(data), func(i int) error {
		data[i]++
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, ref2.Wait())

	for i, v := range data {
		assert.Equal(t, 2, v, "index %d", i)
	}
}

func TestForNoSpuriousInvocation(t *testing.T) {
	var mu sync.Mutex
	var count int
	ref, err := For(5, 10, func(i int) error {
		if i < 5 || i >= 10 {
			return fmt.Errorf("body invoked for out-of-range point %d", i)
		}
		mu.Lock()
		count++
		mu.Unlock()
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, ref.Wait())
	assert.Equal(t, 5, count)
}

func TestWaitIsIdempotent(t *testing.T) {
	ref, err := For(0, 10, func(int) error { return nil })
	require.NoError(t, err)
	require.NoError(t, ref.Wait())
	require.NoError(t, ref.Wait())
}

func TestOneOnOneChainWithDifferentSizes(t *testing.T) {
	const n = 100
	data := make([]int, n+20)
	// Outside C's range D has no predecessor, so D's writes at n-2 and n-1
	// may run alongside A's and B's; the mutex keeps those increments whole.
	var mu sync.Mutex
	inc := func(i int) error {
		mu.Lock()
		data[i]++
		mu.Unlock()
		return nil
	}

	a, err := For(0, n, inc)
	require.NoError(t, err)

	depB, err := OneOnOne(a)
	require.NoError(t, err)
	b, err := For(0, n-1, inc, depB)
	require.NoError(t, err)

	depC, err := OneOnOne(b)
	require.NoError(t, err)
	c, err := For(0, n-2, inc, depC)
	require.NoError(t, err)

	depD, err := OneOnOne(c)
	require.NoError(t, err)
	d, err := For(0, n+20, inc, depD)
	require.NoError(t, err)

	require.NoError(t, d.Wait())
	// Waiting on D does not cover A's and B's points outside C's range.
	require.NoError(t, a.Wait())
	require.NoError(t, b.Wait())
	require.NoError(t, c.Wait())

	// D's range [0,n+20) is a superset of A, B and C's, so it touches every
	// index; once all four loops have finished, the write count at each
	// index is the number of the four loops whose range actually covers it.
	for i := 0; i < n-2; i++ {
		assert.Equal(t, 4, data[i], "index %d covered by A, B, C and D", i)
	}
	for i := n - 2; i < n-1; i++ {
		assert.Equal(t, 3, data[i], "index %d covered by A, B and D, not C", i)
	}
	for i := n - 1; i < n; i++ {
		assert.Equal(t, 2, data[i], "index %d covered by A and D, not B or C", i)
	}
	for i := n; i < n+20; i++ {
		assert.Equal(t, 1, data[i], "index %d covered only by D", i)
	}
}

func TestNeighborhoodStencilConverges(t *testing.T) {
	const n = 2000
	const steps = 50

	a := make([]int, n)
	b := make([]int, n)
	for i := range b {
		b[i] = -1
	}

	var prev *LoopRef[int]
	for step := 0; step < steps; step++ {
		cur, cur2 := a, b
		t64 := step

		var deps []Dependency[int]
		if prev != nil {
			d, err := NeighborhoodSync(prev)
			require.NoError(t, err)
			deps = append(deps, d)
		}

		ref, err := For(1, n-1, func(i int) error {
			if cur[i-1] != t64 || cur[i] != t64 || cur[i+1] != t64 {
				return fmt.Errorf("point %d: stale neighborhood at step %d", i, t64)
			}
			if cur2[i] != t64-1 {
				return fmt.Errorf("point %d: expected previous step %d in the other buffer, got %d", i, t64-1, cur2[i])
			}
			cur2[i] = t64 + 1
			return nil
		}, deps...)
		require.NoError(t, err)
		require.NoError(t, ref.Wait())

		// The stencil only writes interior points; extend the two edge
		// cells to match their nearest interior neighbor (a zero-gradient
		// boundary) so the next step's neighborhood reads at i=1 and
		// i=n-2 stay consistent.
		cur2[0] = cur2[1]
		cur2[n-1] = cur2[n-2]

		a, b = b, a
		prev = ref
	}

	for i := 1; i < n-1; i++ {
		assert.Equal(t, steps, a[i], "index %d", i)
	}
}

func TestInvalidDependencyOnNilLoopRef(t *testing.T) {
	var ref *LoopRef[int]
	_, err := OneOnOne(ref)
	assert.Error(t, err)

	_, err = NeighborhoodSync(ref)
	assert.Error(t, err)
}

func TestForRangeRejectsMismatchedDimensions(t *testing.T) {
	_, err := ForRange(Pt(0, 0), Pt(5), func(Point[int]) error { return nil })
	assert.Error(t, err)
}

func TestForRangeCoversEveryPointOfA3DGridExactlyOnce(t *testing.T) {
	const nx, ny, nz = 4, 5, 6

	var mu sync.Mutex
	seen := make(map[[3]int]int)

	ref, err := ForRange(Pt(0, 0, 0), Pt(nx, ny, nz), func(p Point[int]) error {
		key := [3]int{p[0], p[1], p[2]}
		mu.Lock()
		seen[key]++
		mu.Unlock()
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, ref.Wait())

	assert.Len(t, seen, nx*ny*nz)
	for x := 0; x < nx; x++ {
		for y := 0; y < ny; y++ {
			for z := 0; z < nz; z++ {
				assert.Equal(t, 1, seen[[3]int{x, y, z}], "point (%d,%d,%d)", x, y, z)
			}
		}
	}
}

func TestForSliceMutatesInPlace(t *testing.T) {
	s := []int{1, 2, 3, 4, 5}
	ref, err := ForSlice(s, func(_ int, v *int) error {
		*v *= 2
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, ref.Wait())
	assert.Equal(t, []int{2, 4, 6, 8, 10}, s)
}

func TestSetGrainIgnoresZero(t *testing.T) {
	SetGrain(4)
	SetGrain(0)
	assert.Equal(t, uint64(4), currentGrain())
	SetGrain(1)
}

func TestEngineFailureWhenEngineIsNil(t *testing.T) {
	// Force DefaultEngine's lazy initialization to have already run, so
	// the following SetEngine(nil) is what DefaultEngine observes.
	_ = DefaultEngine()
	defer SetEngine(engine.New(0))

	SetEngine(nil)
	ref, err := For(0, 10, func(int) error { return nil })
	assert.Nil(t, ref)
	var engineErr *EngineFailure
	require.ErrorAs(t, err, &engineErr)
}

func TestBodyFailureReturnedFromWait(t *testing.T) {
	ref, err := For(0, 1, func(int) error {
		return errors.New("boom")
	})
	require.NoError(t, err)
	require.Error(t, ref.Wait())
}
