// Package guestrt is a cooperative task runtime for a guest module driven by a host.
//
// The guest has no threads of its own. The host lends it a critical section
// (the gate), a way to park (Wait) and a way to be unparked (Resume). On top
// of those three primitives guestrt runs many suspendable computations on a
// single executor loop.
//
// # Quick Start
//
// Hand the host and a bootstrap function to Main. It initialises the global
// executor, calls bootstrap with a Spawner, then runs the loop:
//
//	h := host.NewSim()
//	err := guestrt.Main(h, nil, func(s guestrt.Spawner) {
//		s.Spawn(future.Seq(
//			future.Sleep(h, 100*time.Millisecond),
//			future.Do(func() { fmt.Println("tick") }),
//		))
//	})
//
// # Key Concepts
//
// Computation: application work that advances in steps. Step returns
// PollReady when finished, or PollPending after arranging for its Waker to be
// called (a host timer, descriptor readiness, a Signal, or a direct Wake to yield).
//
// Task: the executor's wrapper around one Computation. Waking a task pushes
// it onto the work queue and resumes a parked executor. Duplicate wakes and
// wakes after completion are absorbed.
//
// Executor: pops tasks and steps them one at a time. When the queue is empty
// it parks in the host Wait until something is woken. The default pop order
// is LIFO; ExecutorConfig.QueueOrder selects FIFO.
//
// Host: see package host for an in-process simulator, a Linux eventfd host,
// and the wasm binding to the __xenon_syscall import module.
//
// # Thread Safety
//
// Computations never run concurrently with each other. Spawner and Waker may
// be used from any goroutine or host callback; they only touch the gated queue.
package guestrt
