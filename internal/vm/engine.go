// Package vm starts and stops virtualization on every processor. The
// VM-entry and VM-exit machinery lives behind Backend.
package vm

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/blacktop/go-hyperplatform/internal/perf"
	"github.com/blacktop/go-hyperplatform/internal/status"
)

// Backend virtualizes a single processor.
type Backend interface {
	Virtualize(cpu int) error
	Devirtualize(cpu int)
}

// Processors reports how many processors to virtualize.
type Processors interface {
	ProcessorCount() int
}

// Engine tracks which processors are virtualized. Processors are
// devirtualized in the reverse of the order they were virtualized.
type Engine struct {
	backend Backend
	procs   Processors
	log     zerolog.Logger

	mu          sync.Mutex
	virtualized []int
	running     bool
	suspended   bool
}

// New returns an idle engine.
func New(backend Backend, procs Processors, log zerolog.Logger) *Engine {
	return &Engine{backend: backend, procs: procs, log: log}
}

// Initialize virtualizes every processor. If any processor fails, those
// already virtualized are devirtualized before returning.
func (e *Engine) Initialize(ctx context.Context) error {
	defer perf.Measure("vm.Initialize")()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return status.New(status.Unsuccessful, "vm: already initialized")
	}
	if err := e.virtualizeAll(ctx); err != nil {
		return err
	}
	e.running = true
	e.suspended = false
	e.log.Info().Ints("processors", e.virtualized).Msg("processors virtualized")
	return nil
}

// Terminate devirtualizes every processor.
func (e *Engine) Terminate() {
	defer perf.Measure("vm.Terminate")()

	e.mu.Lock()
	defer e.mu.Unlock()

	e.devirtualizeAll()
	e.running = false
	e.suspended = false
}

// Suspend devirtualizes every processor ahead of a host sleep.
func (e *Engine) Suspend() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running || e.suspended {
		return
	}
	e.devirtualizeAll()
	e.suspended = true
	e.log.Info().Msg("processors devirtualized for sleep")
}

// Resume virtualizes every processor again after a host wake.
func (e *Engine) Resume(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running || !e.suspended {
		return nil
	}
	if err := e.virtualizeAll(ctx); err != nil {
		return err
	}
	e.suspended = false
	e.log.Info().Msg("processors virtualized after wake")
	return nil
}

// Hotplug virtualizes a processor that arrived after Initialize.
func (e *Engine) Hotplug(cpu int) error {
	defer perf.Measure("vm.Hotplug")()

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running || e.suspended || slices.Contains(e.virtualized, cpu) {
		return nil
	}
	if err := e.backend.Virtualize(cpu); err != nil {
		return fmt.Errorf("vm: virtualize hot-added processor %d: %w", cpu, err)
	}
	e.virtualized = append(e.virtualized, cpu)
	e.log.Info().Int("processor", cpu).Msg("hot-added processor virtualized")
	return nil
}

// Virtualized returns the virtualized processors in the order they were
// virtualized.
func (e *Engine) Virtualized() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.virtualized)
}

func (e *Engine) virtualizeAll(ctx context.Context) error {
	n := e.procs.ProcessorCount()
	if n == 0 {
		return status.New(status.Unsuccessful, "vm: no processors to virtualize")
	}
	for cpu := 0; cpu < n; cpu++ {
		if err := ctx.Err(); err != nil {
			e.devirtualizeAll()
			return fmt.Errorf("vm: %w", err)
		}
		if err := e.backend.Virtualize(cpu); err != nil {
			e.devirtualizeAll()
			return fmt.Errorf("vm: virtualize processor %d: %w", cpu, err)
		}
		e.virtualized = append(e.virtualized, cpu)
	}
	return nil
}

func (e *Engine) devirtualizeAll() {
	for i := len(e.virtualized) - 1; i >= 0; i-- {
		e.backend.Devirtualize(e.virtualized[i])
	}
	e.virtualized = e.virtualized[:0]
}
