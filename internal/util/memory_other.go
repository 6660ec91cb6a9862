//go:build !linux && !darwin

package util

import (
	"fmt"
	"os"
)

func pageSize() int {
	return os.Getpagesize()
}

func physicalMemory() ([]MemoryRange, error) {
	return nil, fmt.Errorf("physical memory query not supported on this platform")
}
