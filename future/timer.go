// Package future provides ready-made computations for the guest executor:
// host timers and readiness, signals between tasks, captured results, and
// small combinators to chain them.
//
// Every value here is a core.Computation and is stepped by exactly one task.
// Reusing one value in two spawned tasks is not supported.
package future

import (
	"sync/atomic"
	"time"

	"github.com/Swind/go-guest-runtime/core"
)

// latch forwards one host wake to the task and remembers that it happened,
// so a spurious step before the host fires stays pending.
type latch struct {
	fired atomic.Bool
	w     core.Waker
}

func (l *latch) Wake() {
	l.fired.Store(true)
	l.w.Wake()
}

// Timer completes once its duration has elapsed on the host timer.
type Timer struct {
	src   core.TimerSource
	after time.Duration
	latch *latch
}

// Sleep returns a computation that registers a timer wake on its first step
// and completes on the step after the host delivers it.
// A non-positive duration completes immediately.
func Sleep(src core.TimerSource, d time.Duration) *Timer {
	return &Timer{src: src, after: d}
}

func (t *Timer) Step(w core.Waker) core.PollResult {
	if t.after <= 0 {
		return core.PollReady
	}
	if t.latch == nil {
		t.latch = &latch{w: w}
		t.src.RegisterTimerWake(t.latch, t.after)
		return core.PollPending
	}
	if t.latch.fired.Load() {
		return core.PollReady
	}
	return core.PollPending
}

// Elapsed reports whether the host timer has fired.
func (t *Timer) Elapsed() bool {
	return t.after <= 0 || (t.latch != nil && t.latch.fired.Load())
}
