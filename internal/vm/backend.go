package vm

import (
	"sync"

	"github.com/blacktop/go-hyperplatform/internal/status"
)

// NullBackend accepts every processor without touching hardware.
type NullBackend struct{}

func (NullBackend) Virtualize(int) error { return nil }
func (NullBackend) Devirtualize(int)     {}

// HostBackend refuses to virtualize unless the processors advertise hardware
// virtualization support.
type HostBackend struct {
	once      sync.Once
	supported bool
	feature   string
}

// Feature returns the detected virtualization extension ("vmx", "svm"), or
// "" when none was found.
func (b *HostBackend) Feature() string {
	b.detect()
	return b.feature
}

func (b *HostBackend) Virtualize(int) error {
	b.detect()
	if !b.supported {
		return status.HVNotPresent
	}
	return nil
}

func (b *HostBackend) Devirtualize(int) {}

func (b *HostBackend) detect() {
	b.once.Do(func() {
		b.feature = detectFeature()
		b.supported = b.feature != ""
	})
}
