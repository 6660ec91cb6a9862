// Package host models the host operating system boundary the driver is
// loaded into: the module identity handed to the entry point, OS version
// and memory layout queries, deferred reinitialization, power and hot-plug
// notifications, and the debug break hook.
package host

import (
	"time"

	"github.com/google/uuid"
)

// Module is the identity of the loaded driver module.
type Module struct {
	ID       uuid.UUID
	Name     string
	Path     string
	LoadedAt time.Time
}

// NewModule returns a Module with a fresh identifier.
func NewModule(name, path string) *Module {
	return &Module{
		ID:       uuid.New(),
		Name:     name,
		Path:     path,
		LoadedAt: time.Now(),
	}
}

func (m *Module) String() string {
	if m == nil {
		return "<nil module>"
	}
	return m.Name + "{" + m.ID.String() + "}"
}
