//go:build darwin

package util

import (
	"fmt"

	"golang.org/x/sys/unix"
)

func pageSize() int {
	return unix.Getpagesize()
}

func physicalMemory() ([]MemoryRange, error) {
	size, err := unix.SysctlUint64("hw.memsize")
	if err != nil {
		return nil, fmt.Errorf("sysctl hw.memsize: %w", err)
	}
	return []MemoryRange{{Base: 0, Size: size}}, nil
}
