package future

import "github.com/Swind/go-guest-runtime/core"

// Do returns a computation that runs fn on its first step and completes.
func Do(fn func()) core.Computation {
	return core.ComputationFunc(func(core.Waker) core.PollResult {
		fn()
		return core.PollReady
	})
}

// Yield returns a computation that gives every other queued task a chance to
// run once: it wakes itself, returns pending, and completes on the next step.
func Yield() core.Computation {
	yielded := false
	return core.ComputationFunc(func(w core.Waker) core.PollResult {
		if yielded {
			return core.PollReady
		}
		yielded = true
		w.Wake()
		return core.PollPending
	})
}

// Seq steps each computation in turn and completes after the last one.
// A computation that completes immediately lets the next one start in the same step.
func Seq(cs ...core.Computation) core.Computation {
	return &seq{steps: cs}
}

type seq struct {
	steps []core.Computation
	next  int
}

func (s *seq) Step(w core.Waker) core.PollResult {
	for s.next < len(s.steps) {
		if s.steps[s.next].Step(w) == core.PollPending {
			return core.PollPending
		}
		s.steps[s.next] = nil
		s.next++
	}
	return core.PollReady
}

// Repeat runs n computations one after another, building each with next(i)
// only when its turn comes. A negative n repeats forever.
func Repeat(n int, next func(i int) core.Computation) core.Computation {
	return &repeat{n: n, next: next}
}

type repeat struct {
	n       int
	next    func(i int) core.Computation
	i       int
	current core.Computation
}

func (r *repeat) Step(w core.Waker) core.PollResult {
	for r.n < 0 || r.i < r.n {
		if r.current == nil {
			r.current = r.next(r.i)
		}
		if r.current.Step(w) == core.PollPending {
			return core.PollPending
		}
		r.current = nil
		r.i++
	}
	return core.PollReady
}
