package host

import (
	"strconv"
	"sync"
)

// defaultSystemRangeStart is where kernel space begins on a 32-bit host with
// the stock 3G/1G split.
const defaultSystemRangeStart uintptr = 0xC0000000

// System is the Host backed by the running operating system.
type System struct {
	Events *Bus
	Debug  *DebugHook

	reinit Reinitializer

	mu         sync.Mutex
	rangeStart uintptr
}

// NewSystem returns a System with an empty event bus and a disabled debug hook.
func NewSystem() *System {
	return &System{
		Events:     NewBus(),
		Debug:      &DebugHook{},
		rangeStart: defaultSystemRangeStart,
	}
}

// Is64Bit reports whether the host uses 64-bit pointers.
func (s *System) Is64Bit() bool {
	return strconv.IntSize == 64
}

// SystemRangeStart returns the lowest kernel-space address. It is only
// meaningful on 32-bit hosts.
func (s *System) SystemRangeStart() uintptr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rangeStart
}

// SetSystemRangeStart overrides the reported kernel-space start, for hosts
// booted with a non-default address split.
func (s *System) SetSystemRangeStart(addr uintptr) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rangeStart = addr
}

// RegisterReinitialization queues fn to run at the next reinitialization
// opportunity.
func (s *System) RegisterReinitialization(fn ReinitFunc) {
	s.reinit.Register(fn)
}

// Reinitialize runs every queued reinitialization callback.
func (s *System) Reinitialize() int {
	return s.reinit.Run()
}

// DebugBreak fires the debug break hook.
func (s *System) DebugBreak() {
	s.Debug.Break()
}
