//go:build wasip1

package host

import (
	"errors"
	"io"
	"time"
	"unsafe"

	"github.com/Swind/go-guest-runtime/core"
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

//go:wasmimport __xenon_syscall cs_acquire
func csAcquire()

//go:wasmimport __xenon_syscall cs_release
func csRelease()

//go:wasmimport __xenon_syscall wait
func hostWait()

//go:wasmimport __xenon_syscall resume
func hostResume()

//go:wasmimport __xenon_syscall register_timer_wake
func hostRegisterTimerWake(id uint32, micros uint64)

//go:wasmimport __xenon_syscall register_io_wake
func hostRegisterIOWake(id uint32, handle uint32, readable uint32, writable uint32)

//go:wasmimport __xenon_syscall get_time
func hostGetTime() uint64

//go:wasmimport __xenon_syscall print
func hostPrint(ptr unsafe.Pointer, length uint32, newLine uint32)

//go:wasmimport __xenon_syscall eprint
func hostEprint(ptr unsafe.Pointer, length uint32, newLine uint32)

//go:wasmimport __xenon_syscall log
func hostLog(level uint32, ptr unsafe.Pointer, length uint32)

//go:wasmimport __xenon_syscall panic
func hostPanic(ptr unsafe.Pointer, length uint32)

var (
	_ core.Host            = (*Wasm)(nil)
	_ core.Clock           = (*Wasm)(nil)
	_ core.TimerSource     = (*Wasm)(nil)
	_ core.ReadinessSource = (*Wasm)(nil)
	_ core.PanicHandler    = (*Wasm)(nil)
	_ core.FatalHandler    = (*Wasm)(nil)
)

// wasmHost is the only instance; the host calls back into it through xenon_wake.
var wasmHost = newWasm()

// Wasm binds the guest to the __xenon_syscall import module.
//
// Timer and readiness registrations carry a wake id instead of a callback
// pointer; the host delivers the wake by calling the exported xenon_wake(id),
// possibly while the guest is parked in wait.
type Wasm struct {
	wakes *wakeRegistry
}

func newWasm() *Wasm {
	h := &Wasm{}
	h.wakes = newWakeRegistry(h)
	return h
}

// NewWasm returns the process-wide wasm host.
func NewWasm() *Wasm {
	return wasmHost
}

func (h *Wasm) Acquire() core.Token {
	csAcquire()
	return 0
}

func (h *Wasm) Release(core.Token) {
	csRelease()
}

func (h *Wasm) Wait() {
	hostWait()
}

func (h *Wasm) Resume() {
	hostResume()
}

// Now returns the host clock, kept in microseconds by the host.
func (h *Wasm) Now() time.Duration {
	return time.Duration(hostGetTime()) * time.Microsecond
}

func (h *Wasm) RegisterTimerWake(w core.Waker, after time.Duration) {
	id := h.wakes.register(w)
	hostRegisterTimerWake(id, uint64(after/time.Microsecond))
}

// RegisterIOWake asks the host to wake w once the host handle fd is ready.
func (h *Wasm) RegisterIOWake(w core.Waker, fd uintptr, readable, writable bool) error {
	if !readable && !writable {
		return errors.New("register io wake: neither readable nor writable requested")
	}
	id := h.wakes.register(w)
	hostRegisterIOWake(id, uint32(fd), boolToU32(readable), boolToU32(writable))
	return nil
}

// PendingWakes returns the number of registrations the host has not delivered yet.
func (h *Wasm) PendingWakes() int {
	return h.wakes.pending()
}

//go:wasmexport xenon_wake
func xenonWake(id uint32) {
	wasmHost.wakes.deliver(id)
}

// HandlePanic reports a computation panic to the host.
func (h *Wasm) HandlePanic(executorName, taskName string, panicInfo any, stackTrace []byte) {
	reportPanic(panicMessage(executorName, taskName, panicInfo, stackTrace))
}

// HandleFatal reports err to the host, then panics in case the host returned.
func (h *Wasm) HandleFatal(err error) {
	reportPanic(err.Error())
	panic(err)
}

// LogWriter forwards stumpy events to the host log syscall.
// Use with core.NewLoggerWithWriter.
func (h *Wasm) LogWriter() logiface.Writer[*stumpy.Event] {
	return hostLogWriter(func(level uint32, msg []byte) {
		hostLog(level, unsafe.Pointer(unsafe.SliceData(msg)), uint32(len(msg)))
	})
}

// Stdout writes to the host console through the print syscall.
func (h *Wasm) Stdout() io.Writer {
	return printWriter{print: func(p []byte) {
		hostPrint(unsafe.Pointer(unsafe.SliceData(p)), uint32(len(p)), 0)
	}}
}

// Stderr writes to the host error console through the eprint syscall.
func (h *Wasm) Stderr() io.Writer {
	return printWriter{print: func(p []byte) {
		hostEprint(unsafe.Pointer(unsafe.SliceData(p)), uint32(len(p)), 0)
	}}
}

func reportPanic(msg string) {
	hostPanic(unsafe.Pointer(unsafe.StringData(msg)), uint32(len(msg)))
}

func boolToU32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
