// Package host provides core.Host implementations.
//
// Sim runs the guest inside an ordinary Go process: the gate is a mutex,
// Wait/Resume are a one-slot token channel, and timers fire from a goroutine
// standing in for the host timer interrupt. Eventfd (Linux) parks on an
// eventfd and watches descriptors with poll(2). Wasm (wasip1) binds the
// primitives to the __xenon_syscall import module.
package host

import (
	"sync/atomic"
	"time"

	"github.com/Swind/go-guest-runtime/core"
)

var (
	_ core.Host        = (*Sim)(nil)
	_ core.Clock       = (*Sim)(nil)
	_ core.TimerSource = (*Sim)(nil)
)

// Sim is an in-process host.
//
// Resume stores at most one pending token, so a resume that happens before the
// executor reaches Wait is never lost and bursts of resumes coalesce.
type Sim struct {
	core.MutexGate

	resume chan struct{}
	timers *Timers
	start  time.Time

	parked  atomic.Bool
	waits   atomic.Int64
	resumes atomic.Int64
}

// NewSim creates a simulated host with its timer goroutine running.
func NewSim() *Sim {
	return &Sim{
		resume: make(chan struct{}, 1),
		timers: NewTimers(),
		start:  time.Now(),
	}
}

// Wait blocks until Resume has been called since the previous Wait returned.
func (h *Sim) Wait() {
	h.waits.Add(1)
	h.parked.Store(true)
	<-h.resume
	h.parked.Store(false)
}

// Resume wakes a parked Wait, or arms the next one.
func (h *Sim) Resume() {
	h.resumes.Add(1)
	select {
	case h.resume <- struct{}{}:
	default:
		// Token already pending
	}
}

// Now returns the time since the host was created
func (h *Sim) Now() time.Duration {
	return time.Since(h.start)
}

func (h *Sim) RegisterTimerWake(w core.Waker, after time.Duration) {
	h.timers.RegisterTimerWake(w, after)
}

// Parked reports whether a caller is currently blocked in Wait.
func (h *Sim) Parked() bool {
	return h.parked.Load()
}

// Waits returns how many times Wait has been entered
func (h *Sim) Waits() int64 {
	return h.waits.Load()
}

// Resumes returns how many times Resume has been called
func (h *Sim) Resumes() int64 {
	return h.resumes.Load()
}

// PendingTimers returns the number of registered timers that have not fired.
func (h *Sim) PendingTimers() int {
	return h.timers.Len()
}

// Stop releases the timer goroutine. Pending timer wakes are dropped.
func (h *Sim) Stop() {
	h.timers.Stop()
}
