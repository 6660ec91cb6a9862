//go:build !linux

package host

import "fmt"

// Version returns an error on platforms without a kernel version query.
func (s *System) Version() (OSVersion, error) {
	return OSVersion{}, fmt.Errorf("host: version query not supported on this platform")
}
