package core

import "time"

// Host is the environment that loads the guest and drives its entry point.
//
// Besides the Gate it provides the two scheduling primitives the executor needs:
//   - Wait parks the calling context until the host signals resumption.
//   - Resume tells the host that new work is visible and a parked executor must wake.
//
// A Resume delivered before the matching Wait must not be lost: Wait returns
// immediately in that case. Spurious returns from Wait are allowed.
// Host primitives are infallible by contract; an implementation that can fail
// must terminate the process instead of returning.
type Host interface {
	Gate
	Wait()
	Resume()
}

// Clock is implemented by hosts that expose a monotonic clock.
type Clock interface {
	// Now returns the time elapsed since the host started the guest.
	Now() time.Duration
}

// TimerSource is implemented by hosts that can deliver a wake after a delay.
// The wake may be delivered from any context, including while the executor is parked.
type TimerSource interface {
	RegisterTimerWake(w Waker, after time.Duration)
}

// ReadinessSource is implemented by hosts that can deliver a wake when a
// descriptor becomes readable and/or writable.
type ReadinessSource interface {
	RegisterIOWake(w Waker, fd uintptr, readable, writable bool) error
}
