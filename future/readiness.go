package future

import (
	"fmt"

	"github.com/Swind/go-guest-runtime/core"
)

// Readiness completes once a descriptor is ready for the requested direction,
// or once registering the interest fails.
type Readiness struct {
	src      core.ReadinessSource
	fd       uintptr
	readable bool
	writable bool

	latch *latch
	err   error
}

// Readable waits until fd can be read without blocking.
func Readable(src core.ReadinessSource, fd uintptr) *Readiness {
	return &Readiness{src: src, fd: fd, readable: true}
}

// Writable waits until fd can be written without blocking.
func Writable(src core.ReadinessSource, fd uintptr) *Readiness {
	return &Readiness{src: src, fd: fd, writable: true}
}

func (r *Readiness) Step(w core.Waker) core.PollResult {
	if r.err != nil {
		return core.PollReady
	}
	if r.latch == nil {
		l := &latch{w: w}
		if err := r.src.RegisterIOWake(l, r.fd, r.readable, r.writable); err != nil {
			r.err = fmt.Errorf("wait for fd %d: %w", r.fd, err)
			return core.PollReady
		}
		r.latch = l
		return core.PollPending
	}
	if r.latch.fired.Load() {
		return core.PollReady
	}
	return core.PollPending
}

// Err returns the registration error, if any. It is only meaningful once the
// computation has completed.
func (r *Readiness) Err() error {
	return r.err
}
