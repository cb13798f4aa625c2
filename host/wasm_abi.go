package host

import (
	"fmt"

	"github.com/Swind/go-guest-runtime/core"
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Host log levels understood by the log syscall.
const (
	wasmLogError uint32 = 1
	wasmLogWarn  uint32 = 2
	wasmLogInfo  uint32 = 3
	wasmLogDebug uint32 = 4
	wasmLogTrace uint32 = 5
)

// wakeRegistry hands out the ids that timer and readiness registrations carry
// across the wasm boundary, and maps them back to wakers when the host
// delivers them. The map is guarded by the gate because deliveries arrive
// from host callbacks.
type wakeRegistry struct {
	gate   core.Gate
	wakers map[uint32]core.Waker
	nextID uint32
}

func newWakeRegistry(gate core.Gate) *wakeRegistry {
	return &wakeRegistry{
		gate:   gate,
		wakers: make(map[uint32]core.Waker),
	}
}

// register stores w and returns its id. Ids are never 0 and never collide
// with an id still waiting for delivery.
func (r *wakeRegistry) register(w core.Waker) uint32 {
	token := r.gate.Acquire()
	defer r.gate.Release(token)

	for {
		r.nextID++
		if r.nextID == 0 {
			continue
		}
		if _, used := r.wakers[r.nextID]; !used {
			break
		}
	}
	r.wakers[r.nextID] = w
	return r.nextID
}

// take removes and returns the waker registered under id.
func (r *wakeRegistry) take(id uint32) (core.Waker, bool) {
	token := r.gate.Acquire()
	defer r.gate.Release(token)

	w, ok := r.wakers[id]
	delete(r.wakers, id)
	return w, ok
}

// deliver wakes the waker registered under id, outside the gate.
// Unknown ids and repeated deliveries are ignored.
func (r *wakeRegistry) deliver(id uint32) bool {
	w, ok := r.take(id)
	if !ok {
		return false
	}
	w.Wake()
	return true
}

func (r *wakeRegistry) pending() int {
	token := r.gate.Acquire()
	defer r.gate.Release(token)
	return len(r.wakers)
}

func wasmLogLevel(level logiface.Level) uint32 {
	switch {
	case level <= logiface.LevelError:
		return wasmLogError
	case level == logiface.LevelWarning:
		return wasmLogWarn
	case level <= logiface.LevelInformational:
		return wasmLogInfo
	case level == logiface.LevelDebug:
		return wasmLogDebug
	default:
		return wasmLogTrace
	}
}

// hostLogWriter closes each stumpy event and hands it to sink with the host level.
func hostLogWriter(sink func(level uint32, msg []byte)) logiface.Writer[*stumpy.Event] {
	return logiface.WriterFunc[*stumpy.Event](func(e *stumpy.Event) error {
		b := e.Bytes()
		if len(b) == 0 {
			return nil
		}
		// Bytes leaves the object open.
		msg := make([]byte, 0, len(b)+1)
		msg = append(msg, b...)
		msg = append(msg, '}')
		sink(wasmLogLevel(e.Level()), msg)
		return nil
	})
}

// printWriter forwards writes to a host print syscall.
type printWriter struct {
	print func(p []byte)
}

func (w printWriter) Write(p []byte) (int, error) {
	if len(p) > 0 {
		w.print(p)
	}
	return len(p), nil
}

func panicMessage(executorName, taskName string, panicInfo any, stackTrace []byte) string {
	return fmt.Sprintf("executor %s: task %s panicked: %v\n%s", executorName, taskName, panicInfo, stackTrace)
}
