package core

import (
	"reflect"
	"runtime"
)

// Spawner is the public entry point for submitting computations.
// It is cheap to copy and safe to use from any goroutine.
type Spawner struct {
	sender *Sender
	e      *Executor
}

// Spawn wraps c in a new task and queues it. It is fire and forget:
// completion and results are not observable through the Spawner.
func (s Spawner) Spawn(c Computation) {
	s.SpawnNamed(resolveComputationName(c), c)
}

// SpawnFunc is a convenience wrapper around Spawn for ComputationFunc values.
func (s Spawner) SpawnFunc(f func(w Waker) PollResult) {
	s.Spawn(ComputationFunc(f))
}

// SpawnNamed is Spawn with an explicit name used by logs, metrics and poll history.
func (s Spawner) SpawnNamed(name string, c Computation) {
	if c == nil {
		panic("guestrt: spawn of nil computation")
	}
	if name == "" {
		name = "anonymous"
	}

	t := newTask(name, c, s.sender)
	if !t.schedule() {
		s.e.rejectTask(name, ErrQueueClosed)
		return
	}
	s.e.recordSpawn(name)
}

func resolveComputationName(c Computation) string {
	f, ok := c.(ComputationFunc)
	if !ok {
		if c == nil {
			return "anonymous"
		}
		return reflect.TypeOf(c).String()
	}

	pc := reflect.ValueOf(f).Pointer()
	if pc == 0 {
		return "anonymous"
	}

	fn := runtime.FuncForPC(pc)
	if fn == nil || fn.Name() == "" {
		return "anonymous"
	}
	return fn.Name()
}
