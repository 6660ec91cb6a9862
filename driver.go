package hyperplatform

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/blacktop/go-hyperplatform/internal/globalobject"
	"github.com/blacktop/go-hyperplatform/internal/host"
	"github.com/blacktop/go-hyperplatform/internal/status"
)

// maxReinitPasses bounds how many times the log is offered reinitialization.
const maxReinitPasses = 8

// Host is the operating system the driver is loaded into.
type Host interface {
	Platform
	RegisterReinitialization(fn host.ReinitFunc)
	DebugBreak()
}

// LogSystem is the logging subsystem. Initialize may return
// status.ReinitializationNeeded, which is not a failure.
type LogSystem interface {
	Initialize() error
	Reinitialize(count int) error
	Terminate()
	Zerolog() zerolog.Logger
}

// RuntimeFactory returns a fresh global object runtime for one load.
type RuntimeFactory func(log zerolog.Logger) *globalobject.Runtime

// State is the externally visible driver state.
type State int

const (
	StateUnloaded State = iota
	StateRunning
)

func (s State) String() string {
	if s == StateRunning {
		return "running"
	}
	return "unloaded"
}

// Driver sequences subsystem bring-up and tears subsystems down in exactly
// the reverse order. Start and Stop are mutually exclusive.
type Driver struct {
	mu sync.Mutex

	module     *host.Module
	host       Host
	logs       LogSystem
	gate       Gate
	newRuntime RuntimeFactory
	stages     []Stage

	state   State
	active  int
	runtime *globalobject.Runtime
	log     zerolog.Logger
	metrics driverMetrics

	// load identifies the current Start. Reinitialization callbacks queued by
	// an earlier load see a different value and drop out.
	load         uint64
	reinitPasses int
}

// Option configures a Driver.
type Option func(*Driver)

// WithModule sets the module identity handed over by the host.
func WithModule(m *host.Module) Option {
	return func(d *Driver) { d.module = m }
}

// WithHost sets the host the driver runs on.
func WithHost(h Host) Option {
	return func(d *Driver) { d.host = h }
}

// WithLogging sets the logging subsystem.
func WithLogging(l LogSystem) Option {
	return func(d *Driver) { d.logs = l }
}

// WithGate sets the compatibility requirements.
func WithGate(g Gate) Option {
	return func(d *Driver) { d.gate = g }
}

// WithRuntime sets how the global object runtime is built for each load.
func WithRuntime(f RuntimeFactory) Option {
	return func(d *Driver) { d.newRuntime = f }
}

// WithStages sets the ordered stage list.
func WithStages(stages ...Stage) Option {
	return func(d *Driver) { d.stages = stages }
}

// New returns an unloaded Driver. Host and LogSystem are required.
func New(opts ...Option) (*Driver, error) {
	d := &Driver{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(d)
	}
	if d.host == nil {
		return nil, status.New(status.InvalidParameter, "hyperplatform: host is required")
	}
	if d.logs == nil {
		return nil, status.New(status.InvalidParameter, "hyperplatform: logging is required")
	}
	if d.newRuntime == nil {
		d.newRuntime = func(log zerolog.Logger) *globalobject.Runtime {
			return globalobject.New(globalobject.Declared(), globalobject.WithLogger(log))
		}
	}
	d.log = d.logs.Zerolog()
	return d, nil
}

// Start brings the driver up. On any failure every subsystem that was
// started is torn down before Start returns.
//
// A host that fails the compatibility gate yields an *UnsupportedError
// matching ErrCancelled. A failing stage yields a *StageError wrapping the
// stage's own error.
func (d *Driver) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != StateUnloaded {
		return ErrAlreadyStarted
	}
	d.load++
	d.reinitPasses = 0
	d.host.DebugBreak()

	start := time.Now()
	defer func() { d.metrics.recordStart(time.Since(start)) }()

	needReinitialization := false
	if err := d.logs.Initialize(); err != nil {
		if status.Of(err) != status.ReinitializationNeeded {
			d.metrics.loadFailures.Add(1)
			return fmt.Errorf("hyperplatform: initialize logging: %w", err)
		}
		needReinitialization = true
	}

	if err := d.gate.Check(d.host); err != nil {
		d.log.Error().Err(err).Msg("host is not supported")
		d.logs.Terminate()
		d.metrics.cancellations.Add(1)
		return &UnsupportedError{Reason: err}
	}
	d.log.Debug().Stringer("module", d.module).Msg("compatibility check passed")

	rt := d.newRuntime(d.log)
	if err := rt.RunConstructors(); err != nil {
		d.logs.Terminate()
		d.metrics.loadFailures.Add(1)
		return fmt.Errorf("hyperplatform: construct global objects: %w", err)
	}
	d.runtime = rt

	for i, s := range d.stages {
		if err := s.Init(ctx); err != nil {
			d.log.Error().Err(err).Str("stage", s.Name()).Int("index", i).Msg("stage initialization failed")
			d.metrics.stageFailures.Add(1)
			d.metrics.loadFailures.Add(1)
			if d.active > 0 {
				d.metrics.rollbacks.Add(1)
			}
			d.unwind(ctx)
			return &StageError{Stage: s.Name(), Index: i, Err: err}
		}
		d.active = i + 1
		d.metrics.stageInits.Add(1)
		d.log.Debug().Str("stage", s.Name()).Int("index", i).Msg("stage initialized")
	}

	if needReinitialization {
		d.registerReinit(d.load)
	}
	d.state = StateRunning
	d.log.Info().Msg("The VMM has been installed.")
	return nil
}

// Stop tears down every started subsystem in reverse order, then runs the
// global object destructors. Stopping an unloaded driver does nothing.
func (d *Driver) Stop(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == StateUnloaded {
		return
	}
	d.host.DebugBreak()
	d.unwind(ctx)
	d.metrics.unloads.Add(1)
}

// unwind terminates the active stages back to front, runs the destructors
// and closes the log. Callers hold d.mu.
func (d *Driver) unwind(ctx context.Context) {
	for d.active > 0 {
		s := d.stages[d.active-1]
		s.Term(ctx)
		d.active--
		d.metrics.stageTerms.Add(1)
		d.log.Debug().Str("stage", s.Name()).Int("index", d.active).Msg("stage terminated")
	}
	if d.runtime != nil {
		d.runtime.RunDestructors()
		d.runtime = nil
	}
	d.logs.Terminate()
	d.state = StateUnloaded
}

func (d *Driver) registerReinit(load uint64) {
	d.host.RegisterReinitialization(func(int) { d.reinitializeLog(load) })
}

// reinitializeLog runs one reinitialization pass for the given load. Passes
// are counted per load, not by the host.
func (d *Driver) reinitializeLog(load uint64) {
	d.mu.Lock()
	if d.state != StateRunning || d.load != load {
		d.mu.Unlock()
		return
	}
	d.reinitPasses++
	pass := d.reinitPasses
	d.mu.Unlock()

	err := d.logs.Reinitialize(pass)
	switch {
	case err == nil:
	case status.Of(err) == status.ReinitializationNeeded && pass < maxReinitPasses:
		d.registerReinit(load)
	default:
		d.log.Error().Err(err).Int("pass", pass).Msg("log reinitialization failed")
	}
}

// State returns the driver state.
func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Active returns the names of the started stages in start order.
func (d *Driver) Active() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	names := make([]string, d.active)
	for i := range names {
		names[i] = d.stages[i].Name()
	}
	return names
}

// PendingDestructors returns how many global object destructors are still
// registered.
func (d *Driver) PendingDestructors() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.runtime == nil {
		return 0
	}
	return d.runtime.Pending()
}

// Module returns the module identity the driver was loaded with.
func (d *Driver) Module() *host.Module { return d.module }

// Metrics returns a snapshot of the lifecycle counters.
func (d *Driver) Metrics() Metrics { return d.metrics.snapshot() }

// ResetMetrics clears the lifecycle counters.
func (d *Driver) ResetMetrics() { d.metrics.reset() }

// Status is a point-in-time view of a Driver.
type Status struct {
	Module             string   `json:"module" yaml:"module"`
	State              string   `json:"state" yaml:"state"`
	Active             []string `json:"active" yaml:"active"`
	PendingDestructors int      `json:"pending_destructors" yaml:"pending_destructors"`
	Metrics            Metrics  `json:"metrics" yaml:"metrics"`
}

// Status returns the current state, started stages and counters.
func (d *Driver) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	st := Status{
		Module:  d.module.String(),
		State:   d.state.String(),
		Active:  make([]string, d.active),
		Metrics: d.metrics.snapshot(),
	}
	for i := range st.Active {
		st.Active[i] = d.stages[i].Name()
	}
	if d.runtime != nil {
		st.PendingDestructors = d.runtime.Pending()
	}
	return st
}

func (s Status) Headers() []string {
	return []string{"module", "state", "active", "pending destructors"}
}

func (s Status) Rows() [][]string {
	return [][]string{{s.Module, s.State, strings.Join(s.Active, ","), strconv.Itoa(s.PendingDestructors)}}
}
