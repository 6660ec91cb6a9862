// Package power devirtualizes processors before the host sleeps and
// virtualizes them again when it wakes.
package power

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/blacktop/go-hyperplatform/internal/host"
	"github.com/blacktop/go-hyperplatform/internal/status"
)

// Target is driven by power transitions.
type Target interface {
	Suspend()
	Resume(ctx context.Context) error
}

// Callback is the registered power-state callback.
type Callback struct {
	bus    *host.Bus
	target Target
	log    zerolog.Logger

	mu          sync.Mutex
	unsubscribe func()
}

// New returns an unregistered callback.
func New(bus *host.Bus, target Target, log zerolog.Logger) *Callback {
	return &Callback{bus: bus, target: target, log: log}
}

// Initialize registers the callback with the host.
func (c *Callback) Initialize() error {
	if c.bus == nil || c.target == nil {
		return status.New(status.InvalidParameter, "power: missing event bus or target")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unsubscribe != nil {
		return status.New(status.Unsuccessful, "power: callback already registered")
	}
	c.unsubscribe = c.bus.Subscribe(host.EventPower, c.handle)
	return nil
}

// Terminate unregisters the callback.
func (c *Callback) Terminate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
}

func (c *Callback) handle(payload any) {
	state, ok := payload.(host.PowerState)
	if !ok {
		c.log.Warn().Interface("payload", payload).Msg("unexpected power notification")
		return
	}
	c.log.Debug().Stringer("state", state).Msg("power state changing")
	switch state {
	case host.PowerSleep:
		c.target.Suspend()
	case host.PowerResume:
		if err := c.target.Resume(context.Background()); err != nil {
			c.log.Error().Err(err).Msg("failed to virtualize processors after wake")
		}
	}
}
