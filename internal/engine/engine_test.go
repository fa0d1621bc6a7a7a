package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineSpawnRunsTaskAsynchronously(t *testing.T) {
	e := New(4)
	var ran atomic.Bool

	f := e.Spawn(func() error {
		ran.Store(true)
		return nil
	})

	require.NoError(t, f.Wait())
	assert.True(t, ran.Load())
}

func TestEngineSpawnPropagatesError(t *testing.T) {
	e := New(4)
	boom := errors.New("boom")

	f := e.Spawn(func() error { return boom })
	assert.ErrorIs(t, f.Wait(), boom)
}

func TestEngineThrottleBoundsConcurrency(t *testing.T) {
	e := New(2)
	var inFlight, maxInFlight atomic.Int32

	track := func() error {
		n := inFlight.Add(1)
		for {
			cur := maxInFlight.Load()
			if n <= cur || maxInFlight.CompareAndSwap(cur, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return nil
	}

	done := make(chan struct{})
	for range 8 {
		go func() {
			_ = e.Throttle(context.Background(), track)
			done <- struct{}{}
		}()
	}
	for range 8 {
		<-done
	}

	assert.LessOrEqual(t, maxInFlight.Load(), int32(2))
}

func TestEngineThrottleRespectsContextCancellation(t *testing.T) {
	e := New(1)
	ctx, cancel := context.WithCancel(context.Background())

	// Occupy the single permit so the next Throttle call blocks on Acquire.
	blocker := make(chan struct{})
	go func() {
		_ = e.Throttle(context.Background(), func() error {
			<-blocker
			return nil
		})
	}()
	time.Sleep(5 * time.Millisecond)

	cancel()
	err := e.Throttle(ctx, func() error {
		t.Fatal("task must not run once its context is canceled")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	close(blocker)
}

func TestEngineWhenAllJoinsErrors(t *testing.T) {
	e := New(4)
	errA := errors.New("a")
	errB := errors.New("b")

	joined := e.WhenAll(Completed(errA), Completed(nil), Completed(errB))
	err := joined.Wait()
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
}

func TestEngineWhenAllNoFutures(t *testing.T) {
	e := New(1)
	assert.NoError(t, e.WhenAll().Wait())
}

func TestEngineWhenAllAllSuccess(t *testing.T) {
	e := New(1)
	assert.NoError(t, e.WhenAll(Completed(nil), Completed(nil)).Wait())
}
