package host

import (
	"fmt"
	"strconv"
	"strings"
)

// OSVersion is the host kernel version.
type OSVersion struct {
	Major uint32
	Minor uint32
	Build uint32
}

func (v OSVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Build)
}

// ParseRelease parses a kernel release string such as "6.8.0-45-generic".
func ParseRelease(release string) (OSVersion, error) {
	var v OSVersion
	release = strings.TrimSpace(release)
	if release == "" {
		return v, fmt.Errorf("host: empty release string")
	}
	if i := strings.IndexAny(release, "-+_ "); i >= 0 {
		release = release[:i]
	}
	parts := strings.SplitN(release, ".", 3)
	fields := []*uint32{&v.Major, &v.Minor, &v.Build}
	for i, p := range parts {
		if i == len(fields)-1 {
			p = leadingDigits(p)
		}
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return OSVersion{}, fmt.Errorf("host: invalid release %q: %w", release, err)
		}
		*fields[i] = uint32(n)
	}
	return v, nil
}

func leadingDigits(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return s[:i]
		}
	}
	return s
}
