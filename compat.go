package hyperplatform

import (
	"fmt"
	"slices"

	"github.com/blacktop/go-hyperplatform/internal/host"
)

// Platform answers the questions the compatibility gate asks.
type Platform interface {
	Version() (host.OSVersion, error)
	Is64Bit() bool
	SystemRangeStart() uintptr
}

// Gate decides whether the driver may run on a host.
type Gate struct {
	SupportedMajors []uint32
	// SystemRangeStart is the kernel-space start required on 32-bit hosts.
	SystemRangeStart uintptr
}

// Check returns nil when p is supported.
func (g Gate) Check(p Platform) error {
	v, err := p.Version()
	if err != nil {
		return fmt.Errorf("query OS version: %w", err)
	}
	if !slices.Contains(g.SupportedMajors, v.Major) {
		return fmt.Errorf("%w: %s (supported majors %v)", ErrUnsupportedVersion, v, g.SupportedMajors)
	}
	if !p.Is64Bit() && p.SystemRangeStart() != g.SystemRangeStart {
		return fmt.Errorf("%w: system range starts at %#x, want %#x", ErrUnsupportedLayout, p.SystemRangeStart(), g.SystemRangeStart)
	}
	return nil
}

// Supported reports whether p passes the gate.
func (g Gate) Supported(p Platform) (bool, error) {
	if err := g.Check(p); err != nil {
		return false, err
	}
	return true, nil
}
