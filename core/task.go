package core

import (
	"fmt"
	"runtime/debug"
	"time"
)

// PollResult is the outcome of stepping a Computation once.
type PollResult uint8

const (
	// PollPending means the computation registered its Waker somewhere and must be stepped again once woken.
	PollPending PollResult = iota

	// PollReady means the computation finished. It is never stepped again.
	PollReady
)

func (r PollResult) String() string {
	switch r {
	case PollPending:
		return "pending"
	case PollReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Waker is the capability handed to a computation on every step.
// Calling Wake asks the executor to step the computation again.
// It is safe to call from any goroutine, any number of times.
type Waker interface {
	Wake()
}

// Computation is an application supplied unit of suspendable work.
//
// Step advances it as far as possible without blocking. Before returning
// PollPending it must arrange for w.Wake to be called once progress is possible
// (timer, readiness source, Signal, or an immediate w.Wake to yield);
// otherwise it is never stepped again.
type Computation interface {
	Step(w Waker) PollResult
}

// ComputationFunc adapts a function to the Computation interface.
type ComputationFunc func(w Waker) PollResult

func (f ComputationFunc) Step(w Waker) PollResult {
	return f(w)
}

// =============================================================================
// Task: scheduler wrapper around one Computation
// =============================================================================

// TaskState describes where a task is in its lifecycle.
type TaskState uint8

const (
	TaskCreated TaskState = iota
	TaskQueued
	TaskPolling
	// TaskSuspended: pending and not woken yet, only a wake brings it back.
	TaskSuspended
	TaskCompleted
)

func (s TaskState) String() string {
	switch s {
	case TaskCreated:
		return "created"
	case TaskQueued:
		return "queued"
	case TaskPolling:
		return "polling"
	case TaskSuspended:
		return "suspended"
	case TaskCompleted:
		return "completed"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// Task is one unit of suspended computation.
//
// slot, state and queued are only touched under the gate. The task refers to
// the producer side of the queue only, so wakers never keep the executor alive.
type Task struct {
	name   string
	sender *Sender

	slot   Computation
	state  TaskState
	queued bool
}

func newTask(name string, c Computation, sender *Sender) *Task {
	return &Task{
		name:   name,
		sender: sender,
		slot:   c,
		state:  TaskCreated,
	}
}

// Name returns the name given at spawn time.
func (t *Task) Name() string {
	return t.name
}

// State returns a snapshot of the task state.
func (t *Task) State() TaskState {
	var s TaskState
	WithGate(t.sender.gate(), func() {
		s = t.state
	})
	return s
}

// Wake reschedules the task.
//
// A wake for a task that is already queued or already completed is absorbed,
// so duplicates never turn into extra polls of a finished computation.
func (t *Task) Wake() {
	g := t.sender.gate()
	token := g.Acquire()
	if t.queued || t.state == TaskCompleted {
		g.Release(token)
		t.sender.ch.recordWake(true)
		return
	}
	t.queued = true
	if t.state != TaskPolling {
		t.state = TaskQueued
	}
	g.Release(token)

	t.sender.ch.recordWake(false)
	t.sender.Send(t)
}

// schedule marks a freshly created task queued and hands it to the queue.
func (t *Task) schedule() bool {
	WithGate(t.sender.gate(), func() {
		t.queued = true
		t.state = TaskQueued
	})
	return t.sender.Send(t)
}

// poll steps the computation once and reports whether it did. Stale queue
// entries of completed tasks are discarded without a step.
// It must only be called from the executor loop.
func (t *Task) poll(e *Executor) bool {
	g := t.sender.gate()

	token := g.Acquire()
	t.queued = false
	if t.state == TaskCompleted {
		// Completed tasks are inert.
		g.Release(token)
		return false
	}
	c := t.slot
	if c == nil {
		state := t.state
		g.Release(token)
		e.fatal(&ContractViolationError{Task: t.name, State: state, Err: ErrDoublePoll})
		return false
	}
	t.slot = nil
	t.state = TaskPolling
	g.Release(token)

	startedAt := time.Now()
	result, panicked := t.step(e, c)
	finishedAt := time.Now()

	token = g.Acquire()
	switch {
	case result == PollReady:
		t.state = TaskCompleted
	case t.queued:
		t.slot = c
		t.state = TaskQueued
	default:
		t.slot = c
		t.state = TaskSuspended
	}
	g.Release(token)

	e.recordPoll(PollRecord{
		Name:       t.name,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		Duration:   finishedAt.Sub(startedAt),
		Result:     result,
		Panicked:   panicked,
	})
	return true
}

// step runs c outside the gate. A panic completes the task.
func (t *Task) step(e *Executor, c Computation) (result PollResult, panicked bool) {
	defer func() {
		if rec := recover(); rec != nil {
			result = PollReady
			panicked = true
			e.handleTaskPanic(t.name, rec, debug.Stack())
		}
	}()
	return c.Step(t), false
}
