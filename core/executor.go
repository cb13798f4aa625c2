package core

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/joeycumines/logiface"
)

// Executor owns the consumer side of the work queue and the run loop.
//
// Only the goroutine inside Start (or RunUntilIdle) steps computations, so
// computations never run concurrently with each other. Wakes may arrive from
// any goroutine; they only touch the queue.
type Executor struct {
	name  string
	host  Host
	order QueueOrder

	sender   *Sender
	receiver *Receiver

	logger              *logiface.Logger[logiface.Event]
	panicHandler        PanicHandler
	fatalHandler        FatalHandler
	metrics             Metrics
	rejectedTaskHandler RejectedTaskHandler

	history *pollHistory

	running atomic.Bool

	spawned   atomic.Int64
	completed atomic.Int64
	rejected  atomic.Int64
	panicked  atomic.Int64
	polls     atomic.Int64
}

// NewExecutor creates an executor on top of host. A nil config uses DefaultExecutorConfig.
func NewExecutor(host Host, config *ExecutorConfig) *Executor {
	if host == nil {
		panic("guestrt: NewExecutor requires a host")
	}
	if config == nil {
		config = DefaultExecutorConfig()
	}

	e := &Executor{
		name:                config.Name,
		host:                host,
		order:               config.QueueOrder,
		logger:              config.Logger,
		panicHandler:        config.PanicHandler,
		fatalHandler:        config.FatalHandler,
		metrics:             config.Metrics,
		rejectedTaskHandler: config.RejectedTaskHandler,
		history:             newPollHistory(config.HistoryCapacity),
	}

	// Use defaults if not provided
	if e.name == "" {
		e.name = defaultExecutorName
	}
	if e.panicHandler == nil {
		e.panicHandler = &DefaultPanicHandler{}
	}
	if e.fatalHandler == nil {
		e.fatalHandler = &DefaultFatalHandler{}
	}
	if e.metrics == nil {
		e.metrics = &NilMetrics{}
	}
	if e.rejectedTaskHandler == nil {
		e.rejectedTaskHandler = &DefaultRejectedTaskHandler{}
	}

	e.sender, e.receiver = newChannel(host, NewTaskQueue(e.order, host))
	e.sender.ch.onWake = func(redundant bool) {
		e.metrics.RecordWake(e.name, redundant)
	}
	e.sender.ch.onPark = func() {
		e.metrics.RecordPark(e.name)
		e.logger.Trace().Str("executor", e.name).Log("executor parked")
	}

	return e
}

// Name returns the executor name
func (e *Executor) Name() string {
	return e.name
}

// Spawner returns a handle for submitting computations to this executor.
func (e *Executor) Spawner() Spawner {
	return Spawner{sender: e.sender, e: e}
}

// Start invokes bootstrap once with a Spawner, then runs the loop: pop, poll,
// and park in Host.Wait whenever the queue is empty.
//
// It returns only once the executor is closed; a host that never closes it
// runs the loop for the lifetime of the process.
func (e *Executor) Start(bootstrap func(Spawner)) error {
	if !e.running.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	defer e.running.Store(false)

	if e.IsClosed() {
		return ErrExecutorClosed
	}

	e.logger.Info().
		Str("executor", e.name).
		Stringer("order", e.order).
		Log("executor started")

	if bootstrap != nil {
		bootstrap(e.Spawner())
	}

	for {
		t, ok := e.receiver.Recv()
		if !ok {
			break
		}
		e.metrics.RecordQueueDepth(e.name, e.receiver.Len())
		t.poll(e)
	}

	e.logger.Info().
		Str("executor", e.name).
		Int64("polls", e.polls.Load()).
		Log("executor stopped")
	return nil
}

// StartContext is Start, closing the executor once ctx is done.
func (e *Executor) StartContext(ctx context.Context, bootstrap func(Spawner)) error {
	stop := context.AfterFunc(ctx, e.Close)
	defer stop()
	if err := e.Start(bootstrap); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("executor %s: %w", e.name, err)
	}
	return nil
}

// RunUntilIdle polls tasks until the queue is empty, without ever parking.
// It returns the number of computation steps taken; stale entries of
// completed tasks are not counted. Useful for finite hosts and tests.
func (e *Executor) RunUntilIdle() (int, error) {
	if !e.running.CompareAndSwap(false, true) {
		return 0, ErrAlreadyStarted
	}
	defer e.running.Store(false)

	n := 0
	for {
		t, ok := e.receiver.TryRecv()
		if !ok {
			break
		}
		e.metrics.RecordQueueDepth(e.name, e.receiver.Len())
		if t.poll(e) {
			n++
		}
	}
	if e.IsClosed() {
		return n, ErrExecutorClosed
	}
	return n, nil
}

// Close closes the work queue. A parked run loop is resumed and Start returns.
// Queued tasks are dropped and later spawns are rejected. Close is idempotent.
func (e *Executor) Close() {
	if e.sender.ch.close() {
		e.logger.Info().Str("executor", e.name).Log("executor closed")
	}
}

// IsClosed returns true once Close has been called
func (e *Executor) IsClosed() bool {
	return e.sender.ch.closed.Load()
}

// QueueLen returns the number of queued task entries
func (e *Executor) QueueLen() int {
	return e.receiver.Len()
}

// RecentPolls returns up to limit poll records, newest first.
func (e *Executor) RecentPolls(limit int) []PollRecord {
	return e.history.Recent(limit)
}

// Stats returns a snapshot of the executor state
func (e *Executor) Stats() ExecutorStats {
	ch := e.sender.ch
	stats := ExecutorStats{
		Name:           e.name,
		Order:          e.order,
		Queued:         e.receiver.Len(),
		Spawned:        e.spawned.Load(),
		Completed:      e.completed.Load(),
		Rejected:       e.rejected.Load(),
		Panicked:       e.panicked.Load(),
		Polls:          e.polls.Load(),
		Wakes:          ch.wakes.Load(),
		RedundantWakes: ch.redundantWakes.Load(),
		Parks:          ch.parks.Load(),
		Running:        e.running.Load(),
		Closed:         ch.closed.Load(),
	}
	if last, ok := e.history.Last(); ok {
		stats.LastTaskName = last.Name
		stats.LastPollAt = last.FinishedAt
	}
	return stats
}

func (e *Executor) recordSpawn(name string) {
	e.spawned.Add(1)
	e.logger.Debug().
		Str("executor", e.name).
		Str("task", name).
		Log("task spawned")
}

func (e *Executor) rejectTask(name string, reason error) {
	e.rejected.Add(1)
	e.logger.Warning().
		Str("executor", e.name).
		Str("task", name).
		Err(reason).
		Log("spawn rejected")
	e.rejectedTaskHandler.HandleRejectedTask(e.name, name, reason)
	e.metrics.RecordTaskRejected(e.name, reason.Error())
}

func (e *Executor) recordPoll(record PollRecord) {
	record.ExecutorName = e.name
	e.polls.Add(1)
	if record.Result == PollReady {
		e.completed.Add(1)
	}
	e.history.Add(record)
	e.metrics.RecordPollDuration(e.name, record.Result, record.Duration)
}

func (e *Executor) handleTaskPanic(taskName string, panicInfo any, stack []byte) {
	e.panicked.Add(1)
	e.logger.Err().
		Str("executor", e.name).
		Str("task", taskName).
		Any("panic", panicInfo).
		Log("computation panicked")
	e.metrics.RecordTaskPanic(e.name, panicInfo)
	e.panicHandler.HandlePanic(e.name, taskName, panicInfo, stack)
}

func (e *Executor) fatal(err error) {
	e.logger.Emerg().
		Str("executor", e.name).
		Err(err).
		Log("scheduler contract violation")
	e.fatalHandler.HandleFatal(err)
}
