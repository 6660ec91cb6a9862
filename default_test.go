package hyperplatform

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blacktop/go-hyperplatform/internal/config"
	"github.com/blacktop/go-hyperplatform/internal/host"
	"github.com/blacktop/go-hyperplatform/internal/perf"
)

// defaultConfig returns a config that accepts the running host with the null
// backend, or skips when the host version cannot be read.
func defaultConfig(t *testing.T, sys *host.System) config.Config {
	t.Helper()
	v, err := sys.Version()
	if err != nil {
		t.Skipf("host version unavailable: %v", err)
	}
	cfg := config.Default()
	cfg.Log.Level = "debug"
	cfg.Log.File = filepath.Join(t.TempDir(), "hyperplatform.log")
	cfg.Compat.SupportedMajors = []uint32{v.Major}
	cfg.VM.Backend = "null"
	cfg.VM.Processors = 2
	return cfg
}

func TestNewDefaultLifecycle(t *testing.T) {
	sys := host.NewSystem()
	cfg := defaultConfig(t, sys)
	mod := host.NewModule("hyperplatform", "/opt/hyperplatform")

	d, ss, err := NewDefault(cfg, mod, sys)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, d.Start(ctx))
	assert.Equal(t, []string{"perf", "util", "power", "hotplug", "vm"}, d.Active())
	assert.Equal(t, []int{0, 1}, ss.Engine.Virtualized())
	assert.Equal(t, 1, d.PendingDestructors(), "perf collector registers its destructor")
	assert.NotNil(t, perf.Gatherer())
	assert.False(t, ss.Logs.Buffered())

	info, ok := ss.Util.Info()
	require.True(t, ok)
	assert.Same(t, mod, info.Module)
	assert.Positive(t, info.PageSize)

	// Power transitions and hotplug arrive through the host event bus.
	assert.Equal(t, 1, sys.Events.Publish(host.EventPower, host.PowerSleep))
	assert.Empty(t, ss.Engine.Virtualized())
	sys.Events.Publish(host.EventPower, host.PowerResume)
	assert.Equal(t, []int{0, 1}, ss.Engine.Virtualized())
	sys.Events.Publish(host.EventProcessorAdded, 2)
	assert.Equal(t, []int{0, 1, 2}, ss.Engine.Virtualized())

	d.Stop(ctx)
	assert.Equal(t, StateUnloaded, d.State())
	assert.Empty(t, ss.Engine.Virtualized())
	assert.Zero(t, d.PendingDestructors())
	assert.Nil(t, perf.Gatherer())
	assert.Zero(t, sys.Events.Subscribers(host.EventPower))
	assert.Zero(t, sys.Events.Subscribers(host.EventProcessorAdded))

	data, err := os.ReadFile(cfg.Log.File)
	require.NoError(t, err)
	assert.Contains(t, string(data), "The VMM has been installed.")
}

func TestNewDefaultUnsupportedHost(t *testing.T) {
	sys := host.NewSystem()
	cfg := defaultConfig(t, sys)
	cfg.Compat.SupportedMajors = []uint32{0}

	d, ss, err := NewDefault(cfg, host.NewModule("hyperplatform", ""), sys)
	require.NoError(t, err)

	err = d.Start(context.Background())
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Empty(t, d.Active())
	assert.Empty(t, ss.Engine.Virtualized())
	assert.Zero(t, sys.Events.Subscribers(host.EventPower))
}

func TestNewDefaultCancelledContext(t *testing.T) {
	sys := host.NewSystem()
	cfg := defaultConfig(t, sys)

	d, ss, err := NewDefault(cfg, host.NewModule("hyperplatform", ""), sys)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = d.Start(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrCancelled)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "vm", se.Stage)
	assert.Zero(t, d.Metrics().Cancellations)
	assert.Empty(t, d.Active())
	assert.Empty(t, ss.Engine.Virtualized())
}

func TestNewDefaultDeferredLogFile(t *testing.T) {
	sys := host.NewSystem()
	cfg := defaultConfig(t, sys)
	dir := filepath.Join(t.TempDir(), "late")
	cfg.Log.File = filepath.Join(dir, "hyperplatform.log")

	d, ss, err := NewDefault(cfg, host.NewModule("hyperplatform", ""), sys)
	require.NoError(t, err)
	require.NoError(t, d.Start(context.Background()))
	assert.True(t, ss.Logs.Buffered())

	assert.Equal(t, 1, sys.Reinitialize())
	assert.True(t, ss.Logs.Buffered(), "directory still missing")

	require.NoError(t, os.MkdirAll(dir, 0o755))
	assert.Equal(t, 1, sys.Reinitialize())
	assert.False(t, ss.Logs.Buffered())

	d.Stop(context.Background())

	data, err := os.ReadFile(cfg.Log.File)
	require.NoError(t, err)
	assert.Contains(t, string(data), "The VMM has been installed.")
}

func TestNewDefaultPoolExhaustion(t *testing.T) {
	sys := host.NewSystem()
	cfg := defaultConfig(t, sys)
	cfg.Runtime.PoolLimit = 1

	d, _, err := NewDefault(cfg, host.NewModule("hyperplatform", ""), sys)
	require.NoError(t, err)

	// The collector's destructor does not fit, but construction still
	// succeeds and the driver loads.
	require.NoError(t, d.Start(context.Background()))
	assert.Zero(t, d.PendingDestructors())
	d.Stop(context.Background())
}

func TestNewDefaultInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.VM.Backend = "kvm"

	_, _, err := NewDefault(cfg, nil, host.NewSystem())
	assert.Error(t, err)
}

func TestNewDefaultBreakOnEntry(t *testing.T) {
	sys := host.NewSystem()
	cfg := defaultConfig(t, sys)
	cfg.Debug.BreakOnEntry = true

	var breaks int
	sys.Debug.OnBreak = func() { breaks++ }

	d, _, err := NewDefault(cfg, host.NewModule("hyperplatform", ""), sys)
	require.NoError(t, err)
	require.NoError(t, d.Start(context.Background()))
	d.Stop(context.Background())
	assert.Equal(t, 2, breaks)
}

func TestNewDefaultStartTwice(t *testing.T) {
	sys := host.NewSystem()
	cfg := defaultConfig(t, sys)

	d, _, err := NewDefault(cfg, host.NewModule("hyperplatform", ""), sys)
	require.NoError(t, err)
	require.NoError(t, d.Start(context.Background()))
	assert.ErrorIs(t, d.Start(context.Background()), ErrAlreadyStarted)
	d.Stop(context.Background())
}
