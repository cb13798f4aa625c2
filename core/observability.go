package core

import "time"

// PollRecord captures one step of a computation.
type PollRecord struct {
	Name         string
	ExecutorName string
	StartedAt    time.Time
	FinishedAt   time.Time
	Duration     time.Duration
	Result       PollResult
	Panicked     bool
}

// ExecutorStats represents runtime observability state for an executor.
type ExecutorStats struct {
	Name           string
	Order          QueueOrder
	Queued         int
	Spawned        int64
	Completed      int64
	Rejected       int64
	Panicked       int64
	Polls          int64
	Wakes          int64
	RedundantWakes int64
	Parks          int64
	Running        bool
	Closed         bool
	LastTaskName   string
	LastPollAt     time.Time
}

// Live returns the number of spawned tasks that have not completed.
func (s ExecutorStats) Live() int64 {
	return s.Spawned - s.Completed
}
