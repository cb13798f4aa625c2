package core

import (
	"errors"
	"testing"
	"time"
)

// TestDefaultExecutorConfig verifies the default configuration
// Given: DefaultExecutorConfig is called
// When: The returned config is inspected
// Then: Every handler is set, the order is LIFO and the history has its default capacity
func TestDefaultExecutorConfig(t *testing.T) {
	// Act
	config := DefaultExecutorConfig()

	// Assert
	if config.Name != defaultExecutorName {
		t.Errorf("Name = %q, want %q", config.Name, defaultExecutorName)
	}
	if config.QueueOrder != QueueLIFO {
		t.Errorf("QueueOrder = %v, want %v", config.QueueOrder, QueueLIFO)
	}
	if config.PanicHandler == nil || config.FatalHandler == nil || config.Metrics == nil || config.RejectedTaskHandler == nil {
		t.Errorf("default config has a nil handler: %+v", config)
	}
	if config.HistoryCapacity != defaultPollHistoryCapacity {
		t.Errorf("HistoryCapacity = %d, want %d", config.HistoryCapacity, defaultPollHistoryCapacity)
	}
	if config.Logger != nil {
		t.Error("default config should not log")
	}
}

// TestNewExecutor_FillsDefaults verifies a sparse config is completed
func TestNewExecutor_FillsDefaults(t *testing.T) {
	e := NewExecutor(newTestHost(), &ExecutorConfig{})

	if e.Name() != defaultExecutorName {
		t.Errorf("Name() = %q, want %q", e.Name(), defaultExecutorName)
	}
	if _, ok := e.panicHandler.(*DefaultPanicHandler); !ok {
		t.Errorf("panicHandler = %T, want *DefaultPanicHandler", e.panicHandler)
	}
	if _, ok := e.fatalHandler.(*DefaultFatalHandler); !ok {
		t.Errorf("fatalHandler = %T, want *DefaultFatalHandler", e.fatalHandler)
	}
	if _, ok := e.metrics.(*NilMetrics); !ok {
		t.Errorf("metrics = %T, want *NilMetrics", e.metrics)
	}
	if _, ok := e.rejectedTaskHandler.(*DefaultRejectedTaskHandler); !ok {
		t.Errorf("rejectedTaskHandler = %T, want *DefaultRejectedTaskHandler", e.rejectedTaskHandler)
	}
}

func TestNewExecutor_NilHostPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewExecutor(nil) did not panic")
		}
	}()
	NewExecutor(nil, nil)
}

// TestDefaultHandlers_DoNotPanic exercises the stderr handlers and NilMetrics
func TestDefaultHandlers_DoNotPanic(t *testing.T) {
	(&DefaultPanicHandler{}).HandlePanic("test", "task", "boom", []byte("stack"))
	(&DefaultRejectedTaskHandler{}).HandleRejectedTask("test", "task", ErrQueueClosed)

	m := &NilMetrics{}
	m.RecordPollDuration("test", PollReady, time.Millisecond)
	m.RecordTaskPanic("test", "boom")
	m.RecordQueueDepth("test", 1)
	m.RecordTaskRejected("test", "closed")
	m.RecordWake("test", true)
	m.RecordPark("test")
}

func TestFatalHandlerFunc(t *testing.T) {
	var got error
	var h FatalHandler = FatalHandlerFunc(func(err error) { got = err })

	h.HandleFatal(ErrDoublePoll)

	if !errors.Is(got, ErrDoublePoll) {
		t.Errorf("handler received %v, want %v", got, ErrDoublePoll)
	}
}

// TestWithGate verifies WithGate releases the gate it acquired
func TestWithGate(t *testing.T) {
	g := NewMutexGate()
	ran := false

	WithGate(g, func() { ran = true })

	if !ran {
		t.Fatal("fn did not run")
	}
	if !g.mu.TryLock() {
		t.Fatal("gate still held after WithGate returned")
	}
	g.mu.Unlock()
}
