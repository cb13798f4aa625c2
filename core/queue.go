package core

const (
	defaultQueueCap     = 16
	compactMinCap       = 64 // Don't compact if capacity is less than this
	compactShrinkFactor = 4  // Trigger compaction when len < cap/4
)

// QueueOrder selects the pop discipline of the work queue.
type QueueOrder int

const (
	// QueueLIFO pops the most recently pushed task first (stack discipline).
	// There is no fairness across tasks.
	QueueLIFO QueueOrder = iota

	// QueueFIFO pops tasks in push order, so a task that keeps yielding cannot starve the others.
	QueueFIFO
)

func (o QueueOrder) String() string {
	switch o {
	case QueueLIFO:
		return "lifo"
	case QueueFIFO:
		return "fifo"
	default:
		return "unknown"
	}
}

// TaskQueue defines the interface for the runnable task containers.
// Every method runs inside the gate the queue was built with.
type TaskQueue interface {
	Push(t *Task)
	Pop() (*Task, bool)
	Len() int
	IsEmpty() bool
	MaybeCompact()
	Clear() // Clear all tasks from the queue
}

// NewTaskQueue creates a queue with the given order, guarded by gate.
func NewTaskQueue(order QueueOrder, gate Gate) TaskQueue {
	if order == QueueFIFO {
		return NewFIFOTaskQueue(gate)
	}
	return NewLIFOTaskQueue(gate)
}

// =============================================================================
// LIFOTaskQueue: growable stack
// =============================================================================

type LIFOTaskQueue struct {
	gate  Gate
	tasks []*Task
}

func NewLIFOTaskQueue(gate Gate) *LIFOTaskQueue {
	return &LIFOTaskQueue{
		gate:  gate,
		tasks: make([]*Task, 0, defaultQueueCap),
	}
}

func (q *LIFOTaskQueue) Push(t *Task) {
	token := q.gate.Acquire()
	defer q.gate.Release(token)
	q.tasks = append(q.tasks, t)
}

func (q *LIFOTaskQueue) Pop() (*Task, bool) {
	token := q.gate.Acquire()
	defer q.gate.Release(token)

	n := len(q.tasks)
	if n == 0 {
		return nil, false
	}

	t := q.tasks[n-1]
	q.tasks[n-1] = nil
	q.tasks = q.tasks[:n-1]
	return t, true
}

func (q *LIFOTaskQueue) Len() int {
	token := q.gate.Acquire()
	defer q.gate.Release(token)
	return len(q.tasks)
}

func (q *LIFOTaskQueue) IsEmpty() bool {
	return q.Len() == 0
}

// MaybeCompact shrinks the backing array once the stack has drained well below its capacity.
func (q *LIFOTaskQueue) MaybeCompact() {
	token := q.gate.Acquire()
	defer q.gate.Release(token)
	q.tasks = compactLocked(q.tasks)
}

func (q *LIFOTaskQueue) Clear() {
	token := q.gate.Acquire()
	defer q.gate.Release(token)
	q.tasks = make([]*Task, 0, defaultQueueCap)
}

// =============================================================================
// FIFOTaskQueue: slice-backed queue with compaction
// =============================================================================

type FIFOTaskQueue struct {
	gate  Gate
	tasks []*Task
}

func NewFIFOTaskQueue(gate Gate) *FIFOTaskQueue {
	return &FIFOTaskQueue{
		gate:  gate,
		tasks: make([]*Task, 0, defaultQueueCap),
	}
}

func (q *FIFOTaskQueue) Push(t *Task) {
	token := q.gate.Acquire()
	defer q.gate.Release(token)
	q.tasks = append(q.tasks, t)
}

func (q *FIFOTaskQueue) Pop() (*Task, bool) {
	token := q.gate.Acquire()
	defer q.gate.Release(token)

	if len(q.tasks) == 0 {
		return nil, false
	}

	t := q.tasks[0]
	// Zero out the element in the underlying array to prevent memory leak
	q.tasks[0] = nil
	q.tasks = q.tasks[1:]
	q.tasks = compactLocked(q.tasks)

	return t, true
}

func (q *FIFOTaskQueue) Len() int {
	token := q.gate.Acquire()
	defer q.gate.Release(token)
	return len(q.tasks)
}

func (q *FIFOTaskQueue) IsEmpty() bool {
	return q.Len() == 0
}

func (q *FIFOTaskQueue) MaybeCompact() {
	token := q.gate.Acquire()
	defer q.gate.Release(token)
	q.tasks = compactLocked(q.tasks)
}

// Clear removes all tasks from the queue and releases references
func (q *FIFOTaskQueue) Clear() {
	token := q.gate.Acquire()
	defer q.gate.Release(token)
	q.tasks = make([]*Task, 0, defaultQueueCap)
}

// compactLocked returns tasks in a right-sized backing array. Callers hold the gate.
func compactLocked(tasks []*Task) []*Task {
	n := len(tasks)
	c := cap(tasks)

	if c < compactMinCap {
		return tasks
	}
	if n == 0 {
		return make([]*Task, 0, defaultQueueCap)
	}
	if n*compactShrinkFactor >= c {
		return tasks
	}

	newCap := max(max(c/2, defaultQueueCap), n)

	newSlice := make([]*Task, n, newCap)
	copy(newSlice, tasks)
	return newSlice
}
