package host

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/Swind/go-guest-runtime/core"
)

// timerEntry is one registered timer wake
type timerEntry struct {
	runAt time.Time
	waker core.Waker
	index int // for heap interface
}

// timerHeap implements heap.Interface
type timerHeap []*timerEntry

func (h timerHeap) Len() int           { return len(h) }
func (h timerHeap) Less(i, j int) bool { return h[i].runAt.Before(h[j].runAt) }
func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	n := len(*h)
	item := x.(*timerEntry)
	item.index = n
	*h = append(*h, item)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil // avoid memory leak
	item.index = -1
	*h = old[0 : n-1]
	return item
}

func (h *timerHeap) Peek() *timerEntry {
	if len(*h) == 0 {
		return nil
	}
	return (*h)[0]
}

// Timers delivers timer wakes from a dedicated goroutine, the native stand-in
// for a host timer interrupt. Expired wakers are called outside the lock.
type Timers struct {
	pq      timerHeap
	mu      sync.Mutex
	stopped bool
	wakeup chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewTimers creates and starts a timer goroutine.
func NewTimers() *Timers {
	ctx, cancel := context.WithCancel(context.Background())
	tm := &Timers{
		pq:     make(timerHeap, 0),
		wakeup: make(chan struct{}, 1),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	heap.Init(&tm.pq)
	go tm.loop()
	return tm
}

// RegisterTimerWake arranges for w.Wake to be called once after has elapsed.
// Once the timers are stopped the wake is delivered immediately instead.
func (tm *Timers) RegisterTimerWake(w core.Waker, after time.Duration) {
	tm.mu.Lock()
	if tm.stopped {
		tm.mu.Unlock()
		w.Wake()
		return
	}
	defer tm.mu.Unlock()

	item := &timerEntry{
		runAt: time.Now().Add(after),
		waker: w,
	}
	heap.Push(&tm.pq, item)

	if item.index == 0 {
		select {
		case tm.wakeup <- struct{}{}:
		default:
		}
	}
}

func (tm *Timers) loop() {
	defer close(tm.done)

	timer := time.NewTimer(time.Hour)
	timer.Stop()

	for {
		nextRun, pending := tm.calculateNextRun()
		if !pending {
			// No timers, wait indefinitely
			nextRun = 1000 * time.Hour
		}

		timer.Reset(nextRun)

		select {
		case <-tm.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			tm.fireExpired()
		case <-tm.wakeup:
			// New earliest timer, need to recalculate
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}
	}
}

// calculateNextRun determines how long to wait until the next timer.
// pending is false when no timer is registered.
func (tm *Timers) calculateNextRun() (wait time.Duration, pending bool) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	item := tm.pq.Peek()
	if item == nil {
		return 0, false
	}

	now := time.Now()
	if item.runAt.Before(now) {
		return 0, true
	}
	return item.runAt.Sub(now), true
}

func (tm *Timers) fireExpired() {
	tm.mu.Lock()

	now := time.Now()
	var expired []*timerEntry

	for tm.pq.Len() > 0 {
		item := tm.pq.Peek()
		if item.runAt.After(now) {
			break
		}
		heap.Pop(&tm.pq)
		expired = append(expired, item)
	}

	tm.mu.Unlock()

	for _, item := range expired {
		item.waker.Wake()
	}
}

// Stop terminates the timer goroutine. Pending wakes are dropped; wakes
// registered afterwards fire at once so no computation waits forever.
func (tm *Timers) Stop() {
	tm.mu.Lock()
	tm.stopped = true
	tm.pq = make(timerHeap, 0)
	heap.Init(&tm.pq)
	tm.mu.Unlock()

	tm.cancel()
	<-tm.done
}

// Len returns the number of pending timers
func (tm *Timers) Len() int {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return len(tm.pq)
}
