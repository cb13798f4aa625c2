package future

import "github.com/Swind/go-guest-runtime/core"

// Signal is a one-shot event tasks can wait on.
//
// State and waiters live under the gate, and waiters are woken after the gate
// is released, so Set is safe from any goroutine including host callbacks.
type Signal struct {
	gate    core.Gate
	set     bool
	waiters []core.Waker
}

// NewSignal creates an unset signal guarded by gate, normally the executor's host.
func NewSignal(gate core.Gate) *Signal {
	return &Signal{gate: gate}
}

// Set marks the signal and wakes every waiting task. Later calls do nothing.
func (s *Signal) Set() {
	var waiters []core.Waker
	core.WithGate(s.gate, func() {
		if s.set {
			return
		}
		s.set = true
		waiters = s.waiters
		s.waiters = nil
	})
	for _, w := range waiters {
		w.Wake()
	}
}

// IsSet reports whether Set has been called
func (s *Signal) IsSet() bool {
	var set bool
	core.WithGate(s.gate, func() {
		set = s.set
	})
	return set
}

// Wait returns a computation that completes once the signal is set.
func (s *Signal) Wait() core.Computation {
	return &signalWait{s: s}
}

type signalWait struct {
	s          *Signal
	registered bool
}

func (sw *signalWait) Step(w core.Waker) core.PollResult {
	result := core.PollPending
	core.WithGate(sw.s.gate, func() {
		if sw.s.set {
			result = core.PollReady
			return
		}
		if !sw.registered {
			sw.s.waiters = append(sw.s.waiters, w)
			sw.registered = true
		}
	})
	return result
}
