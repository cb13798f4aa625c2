package guestrt

import (
	"sync"
)

// =============================================================================
// Global Executor Helper (Singleton)
// =============================================================================

// A guest module has exactly one work queue; the host enters the guest once
// and every wake, from any context, lands in that queue.
var (
	globalExecutor *Executor
	globalMu       sync.Mutex
)

// InitGlobalExecutor creates the global executor on top of h.
// If it already exists it is returned unchanged and h and config are ignored.
func InitGlobalExecutor(h Host, config *ExecutorConfig) *Executor {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalExecutor != nil {
		return globalExecutor // Already initialized
	}

	globalExecutor = NewExecutor(h, config)
	return globalExecutor
}

// GetGlobalExecutor returns the global executor instance.
// It panics if InitGlobalExecutor has not been called.
func GetGlobalExecutor() *Executor {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalExecutor == nil {
		panic("global executor not initialized. Call InitGlobalExecutor() or Main() first.")
	}
	return globalExecutor
}

// ShutdownGlobalExecutor closes the global executor, which makes a running
// Main return, and forgets it so a later Main starts fresh.
func ShutdownGlobalExecutor() {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalExecutor != nil {
		globalExecutor.Close()
		globalExecutor = nil
	}
}

// Spawn submits c to the global executor.
func Spawn(c Computation) {
	GetGlobalExecutor().Spawner().Spawn(c)
}

// SpawnNamed submits c to the global executor under name.
func SpawnNamed(name string, c Computation) {
	GetGlobalExecutor().Spawner().SpawnNamed(name, c)
}

// Main is the guest entry point. It initialises the global executor on h,
// hands bootstrap a Spawner, and runs the executor loop until the executor is
// closed. A second concurrent call returns ErrAlreadyStarted.
func Main(h Host, config *ExecutorConfig, bootstrap func(Spawner)) error {
	return InitGlobalExecutor(h, config).Start(bootstrap)
}
