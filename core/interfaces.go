package core

import (
	"fmt"
	"os"
	"time"

	"github.com/joeycumines/logiface"
)

// =============================================================================
// PanicHandler: Interface for handling computation panics
// =============================================================================

// PanicHandler is called when a computation panics while being stepped.
// The task is treated as completed afterwards; the executor keeps running.
//
// Implementations may be called from the executor goroutine only.
type PanicHandler interface {
	// HandlePanic is called when a computation panics.
	//
	// Parameters:
	// - executorName: The name of the executor that stepped the computation
	// - taskName: The name the task was spawned with
	// - panicInfo: The panic value recovered from the computation
	// - stackTrace: The stack trace at the time of panic
	HandlePanic(executorName, taskName string, panicInfo any, stackTrace []byte)
}

// DefaultPanicHandler writes panic information to stderr.
type DefaultPanicHandler struct{}

// HandlePanic prints panic information to stderr.
func (h *DefaultPanicHandler) HandlePanic(executorName, taskName string, panicInfo any, stackTrace []byte) {
	fmt.Fprintf(os.Stderr, "[Executor %s] Task %s panic: %v\nStack trace:\n%s",
		executorName, taskName, panicInfo, stackTrace)
}

// =============================================================================
// FatalHandler: Interface for unrecoverable scheduler errors
// =============================================================================

// FatalHandler receives scheduler contract violations (see ContractViolationError).
// There is no recovery path: implementations are expected not to return.
// The executor logs at emergency level before calling it.
type FatalHandler interface {
	HandleFatal(err error)
}

// DefaultFatalHandler terminates the process by panicking with the error.
type DefaultFatalHandler struct{}

func (h *DefaultFatalHandler) HandleFatal(err error) {
	panic(err)
}

// FatalHandlerFunc adapts a function to the FatalHandler interface.
type FatalHandlerFunc func(err error)

func (f FatalHandlerFunc) HandleFatal(err error) { f(err) }

// =============================================================================
// Metrics: Interface for observability and monitoring
// =============================================================================

// Metrics defines the interface for collecting executor metrics.
// Implementations can send metrics to monitoring systems (Prometheus, StatsD, etc.).
//
// Methods should be non-blocking and fast. RecordWake may be called from any
// goroutine, including timer and readiness goroutines standing in for host interrupts.
type Metrics interface {
	// RecordPollDuration records how long one step of a computation took.
	RecordPollDuration(executorName string, result PollResult, duration time.Duration)

	// RecordTaskPanic records that a computation panicked while being stepped.
	RecordTaskPanic(executorName string, panicInfo any)

	// RecordQueueDepth records the queue depth observed after a pop.
	RecordQueueDepth(executorName string, depth int)

	// RecordTaskRejected records that a spawn was rejected (e.g., after Close).
	RecordTaskRejected(executorName string, reason string)

	// RecordWake records a wake; redundant wakes were absorbed without requeueing.
	RecordWake(executorName string, redundant bool)

	// RecordPark records that the executor parked in the host wait primitive.
	RecordPark(executorName string)
}

// NilMetrics provides a no-op metrics implementation that does nothing.
// This is the default when no metrics interface is provided.
type NilMetrics struct{}

func (m *NilMetrics) RecordPollDuration(executorName string, result PollResult, duration time.Duration) {
}
func (m *NilMetrics) RecordTaskPanic(executorName string, panicInfo any)    {}
func (m *NilMetrics) RecordQueueDepth(executorName string, depth int)       {}
func (m *NilMetrics) RecordTaskRejected(executorName string, reason string) {}
func (m *NilMetrics) RecordWake(executorName string, redundant bool)        {}
func (m *NilMetrics) RecordPark(executorName string)                        {}

// =============================================================================
// RejectedTaskHandler: Interface for handling rejected spawns
// =============================================================================

// RejectedTaskHandler is called when a spawn is rejected because the executor
// has been closed.
type RejectedTaskHandler interface {
	HandleRejectedTask(executorName, taskName string, reason error)
}

// DefaultRejectedTaskHandler provides a basic handler that logs rejected tasks.
type DefaultRejectedTaskHandler struct{}

// HandleRejectedTask logs the rejected task.
func (h *DefaultRejectedTaskHandler) HandleRejectedTask(executorName, taskName string, reason error) {
	fmt.Fprintf(os.Stderr, "[Executor %s] Task %s rejected: %v\n", executorName, taskName, reason)
}

// =============================================================================
// ExecutorConfig: Configuration for Executor
// =============================================================================

const defaultExecutorName = "guest"

// ExecutorConfig holds configuration options for Executor.
// All handlers are optional; if not provided, default implementations will be used.
type ExecutorConfig struct {
	// Name labels logs and metrics. Defaults to "guest".
	Name string

	// QueueOrder selects LIFO (default, as the original device runtime) or FIFO pop order.
	QueueOrder QueueOrder

	// Logger receives structured executor logs. Nil disables logging.
	Logger *logiface.Logger[logiface.Event]

	// PanicHandler is called when a computation panics. Defaults to DefaultPanicHandler.
	PanicHandler PanicHandler

	// FatalHandler receives contract violations. Defaults to DefaultFatalHandler.
	FatalHandler FatalHandler

	// Metrics is called to record executor metrics. Defaults to NilMetrics.
	Metrics Metrics

	// RejectedTaskHandler is called when a spawn is rejected. Defaults to DefaultRejectedTaskHandler.
	RejectedTaskHandler RejectedTaskHandler

	// HistoryCapacity bounds the poll history ring. Defaults to 100.
	HistoryCapacity int
}

// DefaultExecutorConfig returns a config with default handlers.
func DefaultExecutorConfig() *ExecutorConfig {
	return &ExecutorConfig{
		Name:                defaultExecutorName,
		QueueOrder:          QueueLIFO,
		PanicHandler:        &DefaultPanicHandler{},
		FatalHandler:        &DefaultFatalHandler{},
		Metrics:             &NilMetrics{},
		RejectedTaskHandler: &DefaultRejectedTaskHandler{},
		HistoryCapacity:     defaultPollHistoryCapacity,
	}
}
