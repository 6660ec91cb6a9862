// Package hotplug virtualizes processors the host brings online after the
// driver has started.
package hotplug

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/blacktop/go-hyperplatform/internal/host"
	"github.com/blacktop/go-hyperplatform/internal/status"
)

// Target receives newly arrived processors.
type Target interface {
	Hotplug(cpu int) error
}

// Callback is the registered processor-arrival callback.
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
		return status.New(status.InvalidParameter, "hotplug: missing event bus or target")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unsubscribe != nil {
		return status.New(status.Unsuccessful, "hotplug: callback already registered")
	}
	c.unsubscribe = c.bus.Subscribe(host.EventProcessorAdded, c.handle)
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
	cpu, ok := payload.(int)
	if !ok || cpu < 0 {
		c.log.Warn().Interface("payload", payload).Msg("unexpected hot-plug notification")
		return
	}
	c.log.Info().Int("processor", cpu).Msg("processor added")
	if err := c.target.Hotplug(cpu); err != nil {
		c.log.Error().Err(err).Int("processor", cpu).Msg("failed to virtualize hot-added processor")
	}
}
