package host

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderedWaker struct {
	mu    *sync.Mutex
	order *[]int
	id    int
}

func (w orderedWaker) Wake() {
	w.mu.Lock()
	defer w.mu.Unlock()
	*w.order = append(*w.order, w.id)
}

// TestTimers_FireInDeadlineOrder verifies wakes are delivered earliest first
// Given: Three timers registered out of order
// When: All of them expire
// Then: Wakes arrive in deadline order and nothing stays pending
func TestTimers_FireInDeadlineOrder(t *testing.T) {
	// Arrange
	tm := NewTimers()
	defer tm.Stop()
	var (
		mu    sync.Mutex
		order []int
	)

	// Act
	tm.RegisterTimerWake(orderedWaker{&mu, &order, 3}, 60*time.Millisecond)
	tm.RegisterTimerWake(orderedWaker{&mu, &order, 1}, 10*time.Millisecond)
	tm.RegisterTimerWake(orderedWaker{&mu, &order, 2}, 30*time.Millisecond)

	// Assert
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 3
	}, time.Second, time.Millisecond)
	mu.Lock()
	assert.Equal(t, []int{1, 2, 3}, order)
	mu.Unlock()
	assert.Zero(t, tm.Len())
}

func TestTimers_NotBeforeDeadline(t *testing.T) {
	tm := NewTimers()
	defer tm.Stop()
	w := &wakeCounter{}

	start := time.Now()
	tm.RegisterTimerWake(w, 30*time.Millisecond)
	require.Eventually(t, func() bool { return w.n.Load() == 1 }, time.Second, time.Millisecond)

	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

// TestTimers_StopDropsPending verifies Stop discards unfired wakes
func TestTimers_StopDropsPending(t *testing.T) {
	tm := NewTimers()
	w := &wakeCounter{}
	tm.RegisterTimerWake(w, time.Hour)
	require.Equal(t, 1, tm.Len())

	tm.Stop()

	assert.Zero(t, tm.Len())
	assert.Zero(t, w.n.Load())
}

// TestTimers_RegisterAfterStopWakesAtOnce verifies a late registration is not lost
// Given: Stopped timers
// When: A wake is registered
// Then: It is delivered immediately and nothing stays pending
func TestTimers_RegisterAfterStopWakesAtOnce(t *testing.T) {
	// Arrange
	tm := NewTimers()
	tm.Stop()
	w := &wakeCounter{}

	// Act
	tm.RegisterTimerWake(w, time.Hour)

	// Assert
	assert.Equal(t, int32(1), w.n.Load())
	assert.Zero(t, tm.Len())
	tm.Stop()
}
