package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRelease(t *testing.T) {
	tests := []struct {
		name    string
		release string
		want    OSVersion
		wantErr bool
	}{
		{name: "distro kernel", release: "6.8.0-45-generic", want: OSVersion{6, 8, 0}},
		{name: "plain", release: "5.15.167", want: OSVersion{5, 15, 167}},
		{name: "two fields", release: "4.19", want: OSVersion{4, 19, 0}},
		{name: "wsl", release: "5.15.153.1-microsoft-standard-WSL2", want: OSVersion{5, 15, 153}},
		{name: "plus suffix", release: "6.1.0+", want: OSVersion{6, 1, 0}},
		{name: "bad minor", release: "6.x.1", wantErr: true},
		{name: "empty", release: "", wantErr: true},
		{name: "garbage", release: "linux", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRelease(tt.release)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOSVersionString(t *testing.T) {
	assert.Equal(t, "10.0.19041", OSVersion{10, 0, 19041}.String())
}

func TestSystemVersionConsistency(t *testing.T) {
	s := NewSystem()
	first, err := s.Version()
	if err != nil {
		t.Skipf("version query unavailable: %v", err)
	}
	for i := 0; i < 5; i++ {
		v, err := s.Version()
		require.NoError(t, err)
		if v != first {
			t.Errorf("Inconsistent version at call %d: got %v, want %v", i, v, first)
		}
	}
}

func TestSystemRangeStart(t *testing.T) {
	s := NewSystem()
	assert.Equal(t, defaultSystemRangeStart, s.SystemRangeStart())
	s.SetSystemRangeStart(0x80000000)
	assert.Equal(t, uintptr(0x80000000), s.SystemRangeStart())
}
