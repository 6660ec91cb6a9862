package hotplug

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blacktop/go-hyperplatform/internal/host"
	"github.com/blacktop/go-hyperplatform/internal/status"
)

type fakeTarget struct {
	cpus []int
	err  error
}

func (f *fakeTarget) Hotplug(cpu int) error {
	f.cpus = append(f.cpus, cpu)
	return f.err
}

func TestCallbackForwardsProcessors(t *testing.T) {
	bus := host.NewBus()
	target := &fakeTarget{}
	c := New(bus, target, zerolog.Nop())
	require.NoError(t, c.Initialize())
	assert.Error(t, c.Initialize())

	bus.Publish(host.EventProcessorAdded, 4)
	bus.Publish(host.EventProcessorAdded, -1)
	bus.Publish(host.EventProcessorAdded, "five")
	bus.Publish(host.EventPower, host.PowerSleep)
	target.err = errors.New("no vmx")
	bus.Publish(host.EventProcessorAdded, 6)
	assert.Equal(t, []int{4, 6}, target.cpus)

	c.Terminate()
	assert.Zero(t, bus.Subscribers(host.EventProcessorAdded))
	bus.Publish(host.EventProcessorAdded, 7)
	assert.Equal(t, []int{4, 6}, target.cpus)
}

func TestInitializeMissingCollaborators(t *testing.T) {
	err := New(nil, &fakeTarget{}, zerolog.Nop()).Initialize()
	assert.Equal(t, status.InvalidParameter, status.Of(err))
}
