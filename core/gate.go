package core

import "sync"

// Token is the opaque restore state returned by Gate.Acquire.
// It must be handed back to the Release call that closes the same section.
type Token uintptr

// Gate is the process-wide critical section guarding the work queue and task slots.
//
// On a real guest it is backed by the host's disable/enable reentrancy pair, so
// while it is held no interrupt-style wake can enter the guest. Acquire/Release
// pairs must nest strictly and are never held while a computation is stepped.
type Gate interface {
	Acquire() Token
	Release(Token)
}

// MutexGate is a Gate backed by sync.Mutex.
// It is the native stand-in for the host primitive and is strictly stronger than it.
// The zero value is ready to use. It is not reentrant.
type MutexGate struct {
	mu sync.Mutex
}

// NewMutexGate creates a new MutexGate
func NewMutexGate() *MutexGate {
	return &MutexGate{}
}

func (g *MutexGate) Acquire() Token {
	g.mu.Lock()
	return 0
}

func (g *MutexGate) Release(Token) {
	g.mu.Unlock()
}

// WithGate runs fn inside the critical section of g.
// fn must not block, step a computation, or notify the host.
func WithGate(g Gate, fn func()) {
	token := g.Acquire()
	defer g.Release(token)
	fn()
}
