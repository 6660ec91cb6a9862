// Package util is the driver's utility layer: the module identity, page
// size, processor enumeration and the physical memory layout.
package util

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/rs/zerolog"

	"github.com/blacktop/go-hyperplatform/internal/host"
	"github.com/blacktop/go-hyperplatform/internal/status"
)

// MemoryRange is one run of physical memory.
type MemoryRange struct {
	Base uint64
	Size uint64
}

// Info is what the utility layer learned at initialization.
type Info struct {
	Module         *host.Module
	PageSize       int
	Processors     int
	PhysicalMemory []MemoryRange
}

// TotalMemory sums the physical memory ranges.
func (i Info) TotalMemory() uint64 {
	var total uint64
	for _, r := range i.PhysicalMemory {
		total += r.Size
	}
	return total
}

// Layer holds the utility state between Initialize and Terminate.
type Layer struct {
	log        zerolog.Logger
	processors int

	mu   sync.RWMutex
	info *Info
}

// Option configures a Layer.
type Option func(*Layer)

// WithProcessors overrides the processor count reported by the runtime.
func WithProcessors(n int) Option {
	return func(u *Layer) { u.processors = n }
}

// New returns an uninitialized Layer.
func New(log zerolog.Logger, opts ...Option) *Layer {
	u := &Layer{log: log}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Initialize records the module identity and queries the host.
func (u *Layer) Initialize(mod *host.Module) error {
	if mod == nil {
		return status.New(status.InvalidParameter, "util: nil module")
	}
	procs := u.processors
	if procs <= 0 {
		procs = runtime.NumCPU()
	}
	ranges, err := physicalMemory()
	if err != nil {
		u.log.Warn().Err(err).Msg("physical memory layout unavailable")
	}
	info := &Info{
		Module:         mod,
		PageSize:       pageSize(),
		Processors:     procs,
		PhysicalMemory: ranges,
	}

	u.mu.Lock()
	u.info = info
	u.mu.Unlock()

	u.log.Debug().
		Stringer("module", mod).
		Int("page_size", info.PageSize).
		Int("processors", procs).
		Uint64("memory", info.TotalMemory()).
		Msg("utility layer initialized")
	return nil
}

// Terminate drops everything Initialize recorded.
func (u *Layer) Terminate() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.info = nil
}

// Info returns a copy of the recorded state.
func (u *Layer) Info() (Info, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	if u.info == nil {
		return Info{}, false
	}
	info := *u.info
	info.PhysicalMemory = append([]MemoryRange(nil), u.info.PhysicalMemory...)
	return info, true
}

// ProcessorCount returns the number of processors, or zero before
// Initialize.
func (u *Layer) ProcessorCount() int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	if u.info == nil {
		return 0
	}
	return u.info.Processors
}

// ForEachProcessor calls fn for every processor in index order and stops at
// the first error.
func (u *Layer) ForEachProcessor(fn func(cpu int) error) error {
	n := u.ProcessorCount()
	if n == 0 {
		return status.New(status.Unsuccessful, "util: not initialized")
	}
	for cpu := 0; cpu < n; cpu++ {
		if err := fn(cpu); err != nil {
			return fmt.Errorf("processor %d: %w", cpu, err)
		}
	}
	return nil
}
