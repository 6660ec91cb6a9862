package host

import (
	"runtime"
	"sync/atomic"
)

// DebugHook is the interactive debugging trap fired at driver entry and
// unload. It does nothing unless Enabled.
type DebugHook struct {
	Enabled bool
	// OnBreak replaces the processor breakpoint when set.
	OnBreak func()

	breaks atomic.Uint64
}

// Break traps into an attached debugger. Without a tracer the break is only
// counted.
func (h *DebugHook) Break() {
	if h == nil || !h.Enabled {
		return
	}
	h.breaks.Add(1)
	if h.OnBreak != nil {
		h.OnBreak()
		return
	}
	if debuggerAttached() {
		runtime.Breakpoint()
	}
}

// Breaks returns how many times the hook fired.
func (h *DebugHook) Breaks() uint64 {
	if h == nil {
		return 0
	}
	return h.breaks.Load()
}
