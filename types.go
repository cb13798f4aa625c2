package guestrt

import "github.com/Swind/go-guest-runtime/core"

// Re-export commonly used types from core package for convenience.
// This allows users to import only the guestrt package for most use cases.

// Host supplies the gate and the Wait/Resume scheduling primitives
type Host = core.Host

// Gate is the process-wide critical section
type Gate = core.Gate

// Computation is application supplied suspendable work
type Computation = core.Computation

// ComputationFunc adapts a function to Computation
type ComputationFunc = core.ComputationFunc

// Waker reschedules the task it belongs to
type Waker = core.Waker

// PollResult is the outcome of one step
type PollResult = core.PollResult

// Spawner submits computations to an executor
type Spawner = core.Spawner

// Executor runs the pop/poll loop
type Executor = core.Executor

// ExecutorConfig holds executor options
type ExecutorConfig = core.ExecutorConfig

// ExecutorStats is a snapshot of executor state
type ExecutorStats = core.ExecutorStats

// QueueOrder selects the pop discipline
type QueueOrder = core.QueueOrder

// Poll results
const (
	PollPending = core.PollPending
	PollReady   = core.PollReady
)

// Queue orders
const (
	QueueLIFO = core.QueueLIFO
	QueueFIFO = core.QueueFIFO
)

// Errors
var (
	ErrDoublePoll     = core.ErrDoublePoll
	ErrQueueClosed    = core.ErrQueueClosed
	ErrExecutorClosed = core.ErrExecutorClosed
	ErrAlreadyStarted = core.ErrAlreadyStarted
)

// Constructors
var (
	DefaultExecutorConfig = core.DefaultExecutorConfig
	NewDefaultLogger      = core.NewDefaultLogger
)

// NewExecutor creates an executor on top of h. A nil config uses DefaultExecutorConfig.
func NewExecutor(h Host, config *ExecutorConfig) *Executor {
	return core.NewExecutor(h, config)
}
