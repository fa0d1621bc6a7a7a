package pfor

import (
	"sync"
	"sync/atomic"

	"github.com/burstloop/pfor/internal/engine"
)

// defaultGrain is the reference default: recurse to single-point leaves.
// Larger grains are a performance knob only; they must not change
// observable semantics.
const defaultGrain uint64 = 1

var (
	grain       atomic.Uint64
	engineOnce  sync.Once
	engineMu    sync.RWMutex
	globalEngin *engine.Engine
)

func init() {
	grain.Store(defaultGrain)
}

// SetGrain overrides the process-wide GRAIN tunable: any range with
// volume <= volume becomes a leaf instead of splitting further.
// The zero value is invalid and is silently ignored, since a grain of zero
// would recurse forever on a nonempty range.
func SetGrain(volume uint64) {
	if volume == 0 {
		return
	}
	grain.Store(volume)
}

func currentGrain() uint64 {
	return grain.Load()
}

// SetEngine overrides the process-wide Task Engine used by every loop. It
// takes the concrete *engine.Engine, so a replacement differs only in its
// concurrency bound (tests may install one with a tighter bound); passing
// nil makes later loop constructors fail with EngineFailure.
func SetEngine(e *engine.Engine) {
	engineMu.Lock()
	defer engineMu.Unlock()
	globalEngin = e
}

// DefaultEngine returns the process-wide Task Engine, lazily created on
// first use: the only global state is this external Task Engine handle,
// initialized before the first loop that needs it.
func DefaultEngine() *engine.Engine {
	engineOnce.Do(func() {
		engineMu.Lock()
		defer engineMu.Unlock()
		if globalEngin == nil {
			globalEngin = engine.New(0)
		}
	})
	engineMu.RLock()
	defer engineMu.RUnlock()
	return globalEngin
}
