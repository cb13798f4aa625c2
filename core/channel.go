package core

import "sync/atomic"

// channel is the state shared by the producer and consumer sides of the work queue.
type channel struct {
	host  Host
	queue TaskQueue

	closed atomic.Bool

	sent           atomic.Int64
	wakes          atomic.Int64
	redundantWakes atomic.Int64
	parks          atomic.Int64

	// onWake and onPark are set once by the executor before any task exists.
	onWake func(redundant bool)
	onPark func()
}

func newChannel(host Host, queue TaskQueue) (*Sender, *Receiver) {
	ch := &channel{
		host:  host,
		queue: queue,
	}
	return &Sender{ch: ch}, &Receiver{ch: ch}
}

func (ch *channel) recordWake(redundant bool) {
	if redundant {
		ch.redundantWakes.Add(1)
	} else {
		ch.wakes.Add(1)
	}
	if ch.onWake != nil {
		ch.onWake(redundant)
	}
}

func (ch *channel) close() bool {
	if !ch.closed.CompareAndSwap(false, true) {
		return false
	}
	ch.queue.Clear()
	ch.host.Resume()
	return true
}

// =============================================================================
// Sender: producer side
// =============================================================================

// Sender is the producer side of the work queue. Tasks hold one to requeue themselves.
type Sender struct {
	ch *channel
}

// Send pushes t and notifies the host that work is visible.
// The notification happens after the gate is released.
// Returns false if the queue has been closed; t is dropped in that case.
func (s *Sender) Send(t *Task) bool {
	if s.ch.closed.Load() {
		return false
	}
	s.ch.queue.Push(t)
	s.ch.sent.Add(1)
	s.ch.host.Resume()
	return true
}

func (s *Sender) gate() Gate {
	return s.ch.host
}

// =============================================================================
// Receiver: consumer side
// =============================================================================

// Receiver is the consumer side of the work queue, owned by the executor.
type Receiver struct {
	ch *channel
}

// TryRecv pops one task without blocking.
func (r *Receiver) TryRecv() (*Task, bool) {
	if r.ch.closed.Load() {
		return nil, false
	}
	return r.ch.queue.Pop()
}

// Recv pops one task, parking in Host.Wait while the queue is empty.
// It returns false once the queue is closed.
func (r *Receiver) Recv() (*Task, bool) {
	for {
		if t, ok := r.TryRecv(); ok {
			return t, true
		}
		if r.ch.closed.Load() {
			return nil, false
		}
		// Idle: give back memory left over from a burst before parking.
		r.ch.queue.MaybeCompact()
		r.ch.parks.Add(1)
		if r.ch.onPark != nil {
			r.ch.onPark()
		}
		r.ch.host.Wait()
	}
}

// Len returns the number of queued task entries.
func (r *Receiver) Len() int {
	return r.ch.queue.Len()
}
