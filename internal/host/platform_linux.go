//go:build linux

package host

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Version returns the running kernel version.
func (s *System) Version() (OSVersion, error) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return OSVersion{}, fmt.Errorf("host: uname: %w", err)
	}
	return ParseRelease(unix.ByteSliceToString(uts.Release[:]))
}
