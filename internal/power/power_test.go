package power

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blacktop/go-hyperplatform/internal/host"
	"github.com/blacktop/go-hyperplatform/internal/status"
)

type fakeTarget struct {
	calls     []string
	resumeErr error
}

func (f *fakeTarget) Suspend() { f.calls = append(f.calls, "suspend") }

func (f *fakeTarget) Resume(context.Context) error {
	f.calls = append(f.calls, "resume")
	return f.resumeErr
}

func TestCallbackDrivesTarget(t *testing.T) {
	bus := host.NewBus()
	target := &fakeTarget{resumeErr: errors.New("resume failed")}
	c := New(bus, target, zerolog.Nop())

	require.NoError(t, c.Initialize())
	assert.Equal(t, 1, bus.Subscribers(host.EventPower))
	assert.Error(t, c.Initialize(), "double registration")

	bus.Publish(host.EventPower, host.PowerSleep)
	bus.Publish(host.EventPower, host.PowerResume)
	bus.Publish(host.EventPower, "garbage")
	bus.Publish(host.EventProcessorAdded, 1)
	assert.Equal(t, []string{"suspend", "resume"}, target.calls)

	c.Terminate()
	c.Terminate()
	assert.Zero(t, bus.Subscribers(host.EventPower))
	bus.Publish(host.EventPower, host.PowerSleep)
	assert.Len(t, target.calls, 2)
}

func TestInitializeMissingCollaborators(t *testing.T) {
	err := New(nil, &fakeTarget{}, zerolog.Nop()).Initialize()
	assert.Equal(t, status.InvalidParameter, status.Of(err))
	err = New(host.NewBus(), nil, zerolog.Nop()).Initialize()
	assert.Equal(t, status.InvalidParameter, status.Of(err))
}
