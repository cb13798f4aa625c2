//go:build linux

package host

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Swind/go-guest-runtime/core"
	"golang.org/x/sys/unix"
)

var (
	_ core.Host            = (*Eventfd)(nil)
	_ core.Clock           = (*Eventfd)(nil)
	_ core.TimerSource     = (*Eventfd)(nil)
	_ core.ReadinessSource = (*Eventfd)(nil)
)

// readinessPollInterval bounds how long a readiness watcher blocks in poll(2)
// before rechecking whether the host was closed.
const readinessPollInterval = 100 * time.Millisecond

// Eventfd is a Linux host that parks the executor on an eventfd.
//
// Wait reads the eventfd counter (resetting it), Resume adds one, so resumes
// before Wait are kept and bursts coalesce. Readiness wakes come from watcher
// goroutines blocked in poll(2). A failing syscall terminates the process.
type Eventfd struct {
	core.MutexGate

	fd     int
	timers *Timers
	start  time.Time

	// mu orders watcher registration against Close, so no watcher is added
	// once Close has started waiting for them.
	mu       sync.Mutex
	closed   atomic.Bool
	watchers sync.WaitGroup
}

// NewEventfd creates the eventfd and starts the timer goroutine.
func NewEventfd() (*Eventfd, error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("create eventfd: %w", err)
	}
	return &Eventfd{
		fd:     fd,
		timers: NewTimers(),
		start:  time.Now(),
	}, nil
}

func (h *Eventfd) Wait() {
	var buf [8]byte
	for {
		_, err := unix.Read(h.fd, buf[:])
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			h.fail("read eventfd", err)
		}
		return
	}
}

func (h *Eventfd) Resume() {
	var buf [8]byte
	binary.NativeEndian.PutUint64(buf[:], 1)
	for {
		_, err := unix.Write(h.fd, buf[:])
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			h.fail("write eventfd", err)
		}
		return
	}
}

func (h *Eventfd) Now() time.Duration {
	return time.Since(h.start)
}

func (h *Eventfd) RegisterTimerWake(w core.Waker, after time.Duration) {
	h.timers.RegisterTimerWake(w, after)
}

// RegisterIOWake wakes w once fd is readable and/or writable, or once poll(2)
// reports an error condition on it, so the computation observes the failure on its next attempt.
func (h *Eventfd) RegisterIOWake(w core.Waker, fd uintptr, readable, writable bool) error {
	var events int16
	if readable {
		events |= unix.POLLIN
	}
	if writable {
		events |= unix.POLLOUT
	}
	if events == 0 {
		return errors.New("register io wake: neither readable nor writable requested")
	}
	h.mu.Lock()
	if h.closed.Load() {
		h.mu.Unlock()
		return errors.New("register io wake: host closed")
	}
	h.watchers.Add(1)
	h.mu.Unlock()

	go func() {
		defer h.watchers.Done()
		fds := []unix.PollFd{{Fd: int32(fd), Events: events}}
		for !h.closed.Load() {
			n, err := unix.Poll(fds, int(readinessPollInterval/time.Millisecond))
			if errors.Is(err, unix.EINTR) {
				continue
			}
			if err != nil || n > 0 {
				w.Wake()
				return
			}
		}
	}()
	return nil
}

// Close stops timers and readiness watchers and closes the eventfd.
// It must only be called once the executor has returned from Start.
func (h *Eventfd) Close() error {
	h.mu.Lock()
	if !h.closed.CompareAndSwap(false, true) {
		h.mu.Unlock()
		return nil
	}
	h.mu.Unlock()

	h.timers.Stop()
	h.watchers.Wait()
	if err := unix.Close(h.fd); err != nil {
		return fmt.Errorf("close eventfd: %w", err)
	}
	return nil
}

func (h *Eventfd) fail(op string, err error) {
	panic(fmt.Errorf("guest host primitive failed: %s: %w", op, err))
}
