package core

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// testHost is a mutex-gated host with a one-slot resume token.
// onResume, if set, runs at the start of every Resume call.
type testHost struct {
	MutexGate

	resume   chan struct{}
	parked   atomic.Bool
	waits    atomic.Int64
	resumes  atomic.Int64
	onResume func()
}

func newTestHost() *testHost {
	return &testHost{resume: make(chan struct{}, 1)}
}

func (h *testHost) Wait() {
	h.waits.Add(1)
	h.parked.Store(true)
	<-h.resume
	h.parked.Store(false)
}

func (h *testHost) Resume() {
	h.resumes.Add(1)
	if h.onResume != nil {
		h.onResume()
	}
	select {
	case h.resume <- struct{}{}:
	default:
	}
}

type quietRejectedHandler struct {
	mu      sync.Mutex
	names   []string
	reasons []error
}

func (h *quietRejectedHandler) HandleRejectedTask(executorName, taskName string, reason error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.names = append(h.names, taskName)
	h.reasons = append(h.reasons, reason)
}

type recordingPanicHandler struct {
	mu     sync.Mutex
	tasks  []string
	values []any
	stacks [][]byte
}

func (h *recordingPanicHandler) HandlePanic(executorName, taskName string, panicInfo any, stackTrace []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.tasks = append(h.tasks, taskName)
	h.values = append(h.values, panicInfo)
	h.stacks = append(h.stacks, stackTrace)
}

// recordingMetrics keeps an ordered event log ("poll:ready", "park", ...).
type recordingMetrics struct {
	mu     sync.Mutex
	events []string
}

func (m *recordingMetrics) add(ev string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
}

func (m *recordingMetrics) snapshot() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.events...)
}

func (m *recordingMetrics) RecordPollDuration(executorName string, result PollResult, duration time.Duration) {
	m.add("poll:" + result.String())
}
func (m *recordingMetrics) RecordTaskPanic(executorName string, panicInfo any) { m.add("panic") }
func (m *recordingMetrics) RecordQueueDepth(executorName string, depth int)    {}
func (m *recordingMetrics) RecordTaskRejected(executorName string, reason string) {
	m.add("rejected")
}
func (m *recordingMetrics) RecordWake(executorName string, redundant bool) {
	if redundant {
		m.add("wake:redundant")
		return
	}
	m.add("wake")
}
func (m *recordingMetrics) RecordPark(executorName string) { m.add("park") }

// newTestExecutor builds an executor on a fresh testHost. Fatal errors fail the test.
func newTestExecutor(t *testing.T, order QueueOrder) (*Executor, *testHost) {
	t.Helper()
	h := newTestHost()
	e := NewExecutor(h, &ExecutorConfig{
		Name:                "test",
		QueueOrder:          order,
		RejectedTaskHandler: &quietRejectedHandler{},
		FatalHandler: FatalHandlerFunc(func(err error) {
			t.Errorf("unexpected fatal error: %v", err)
		}),
	})
	return e, h
}

// countdown is pending (waking itself) until it has been stepped n times.
type countdown struct {
	n     int
	polls int
}

func (c *countdown) Step(w Waker) PollResult {
	c.polls++
	if c.polls >= c.n {
		return PollReady
	}
	w.Wake()
	return PollPending
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met within %v", timeout)
		}
		time.Sleep(time.Millisecond)
	}
}

// startExecutor runs Start in a goroutine and returns a channel receiving its result.
func startExecutor(e *Executor, bootstrap func(Spawner)) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- e.Start(bootstrap)
	}()
	return done
}

func waitStopped(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("executor did not stop")
		return nil
	}
}
