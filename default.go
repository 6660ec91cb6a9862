package hyperplatform

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/blacktop/go-hyperplatform/internal/config"
	"github.com/blacktop/go-hyperplatform/internal/globalobject"
	"github.com/blacktop/go-hyperplatform/internal/host"
	"github.com/blacktop/go-hyperplatform/internal/hotplug"
	"github.com/blacktop/go-hyperplatform/internal/logging"
	"github.com/blacktop/go-hyperplatform/internal/perf"
	"github.com/blacktop/go-hyperplatform/internal/power"
	"github.com/blacktop/go-hyperplatform/internal/util"
	"github.com/blacktop/go-hyperplatform/internal/vm"
)

// Subsystems are the production collaborators NewDefault wires together.
type Subsystems struct {
	Logs    *logging.Logger
	Util    *util.Layer
	Engine  *vm.Engine
	Power   *power.Callback
	Hotplug *hotplug.Callback
}

// NewDefault returns a Driver with the production stage list:
// perf, util, power, hotplug, vm.
func NewDefault(cfg config.Config, mod *host.Module, sys *host.System) (*Driver, *Subsystems, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	sys.Debug.Enabled = cfg.Debug.BreakOnEntry

	logs := logging.New(logging.Options{
		Level:        cfg.Log.Level,
		File:         cfg.Log.File,
		FunctionName: cfg.Log.FunctionName,
	})
	log := logs.Zerolog()
	component := func(name string) zerolog.Logger {
		return log.With().Str("component", name).Logger()
	}

	var backend vm.Backend = &vm.HostBackend{}
	if cfg.VM.Backend == "null" {
		backend = vm.NullBackend{}
	}

	ss := &Subsystems{Logs: logs}
	ss.Util = util.New(component("util"), util.WithProcessors(cfg.VM.Processors))
	ss.Engine = vm.New(backend, ss.Util, component("vm"))
	ss.Power = power.New(sys.Events, ss.Engine, component("power"))
	ss.Hotplug = hotplug.New(sys.Events, ss.Engine, component("hotplug"))

	stages := []Stage{
		NewStage("perf",
			func(context.Context) error { return perf.Initialize(component("perf")) },
			func(context.Context) { perf.Terminate() }),
		NewStage("util",
			func(context.Context) error { return ss.Util.Initialize(mod) },
			func(context.Context) { ss.Util.Terminate() }),
		NewStage("power",
			func(context.Context) error { return ss.Power.Initialize() },
			func(context.Context) { ss.Power.Terminate() }),
		NewStage("hotplug",
			func(context.Context) error { return ss.Hotplug.Initialize() },
			func(context.Context) { ss.Hotplug.Terminate() }),
		NewStage("vm",
			ss.Engine.Initialize,
			func(context.Context) { ss.Engine.Terminate() }),
	}

	poolLimit := cfg.Runtime.PoolLimit
	d, err := New(
		WithModule(mod),
		WithHost(sys),
		WithLogging(logs),
		WithGate(Gate{
			SupportedMajors:  cfg.Compat.SupportedMajors,
			SystemRangeStart: uintptr(cfg.Compat.SystemRangeStart),
		}),
		WithRuntime(func(log zerolog.Logger) *globalobject.Runtime {
			return globalobject.New(globalobject.Declared(),
				globalobject.WithAllocator(globalobject.NewTaggedPool(poolLimit)),
				globalobject.WithLogger(log))
		}),
		WithStages(stages...),
	)
	if err != nil {
		return nil, nil, err
	}
	return d, ss, nil
}
