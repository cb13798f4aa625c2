package core

import (
	"errors"
	"fmt"
)

var (
	// ErrDoublePoll reports a poll that found the task slot empty while the
	// task had not completed: two polls overlapped, which is a scheduler bug.
	ErrDoublePoll = errors.New("task polled while its computation was taken")

	// ErrQueueClosed is reported when work is submitted after Close.
	ErrQueueClosed = errors.New("work queue closed")

	// ErrExecutorClosed is returned by operations on a closed executor.
	ErrExecutorClosed = errors.New("executor closed")

	// ErrAlreadyStarted is returned when Start or RunUntilIdle is entered twice.
	ErrAlreadyStarted = errors.New("executor already running")
)

// ContractViolationError is an unrecoverable scheduler error.
// It is always delivered to the FatalHandler and never returned to callers.
type ContractViolationError struct {
	Task  string
	State TaskState
	Err   error
}

func (e *ContractViolationError) Error() string {
	return fmt.Sprintf("contract violation on task %q (state %s): %v", e.Task, e.State, e.Err)
}

func (e *ContractViolationError) Unwrap() error {
	return e.Err
}
