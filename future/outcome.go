package future

import (
	"errors"

	"github.com/Swind/go-guest-runtime/core"
)

// ErrPending is returned by Outcome.Result while the computation is still running.
var ErrPending = errors.New("outcome not available yet")

// Outcome holds the result of a computation spawned fire-and-forget.
// Errors returned by the application are kept as values; they never stop the executor.
type Outcome[T any] struct {
	done  *Signal
	value T
	err   error
}

// Compute wraps fn in a computation whose result is published through the
// returned Outcome. fn runs to completion on the first step.
func Compute[T any](gate core.Gate, fn func() (T, error)) (core.Computation, *Outcome[T]) {
	o := &Outcome[T]{done: NewSignal(gate)}
	c := core.ComputationFunc(func(core.Waker) core.PollResult {
		o.value, o.err = fn()
		o.done.Set()
		return core.PollReady
	})
	return c, o
}

// Await publishes the outcome of a multi-step computation. The value and error
// returned alongside PollPending are ignored.
func Await[T any](gate core.Gate, step func(w core.Waker) (core.PollResult, T, error)) (core.Computation, *Outcome[T]) {
	o := &Outcome[T]{done: NewSignal(gate)}
	c := core.ComputationFunc(func(w core.Waker) core.PollResult {
		r, v, err := step(w)
		if r == core.PollPending {
			return core.PollPending
		}
		o.value, o.err = v, err
		o.done.Set()
		return core.PollReady
	})
	return c, o
}

// Done reports whether the result is available
func (o *Outcome[T]) Done() bool {
	return o.done.IsSet()
}

// Result returns the value and error produced by the computation, or
// ErrPending if it has not completed yet.
func (o *Outcome[T]) Result() (T, error) {
	if !o.done.IsSet() {
		var zero T
		return zero, ErrPending
	}
	return o.value, o.err
}

// Wait returns a computation that completes once the result is available.
func (o *Outcome[T]) Wait() core.Computation {
	return o.done.Wait()
}
