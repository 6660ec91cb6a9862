package status

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusError(t *testing.T) {
	t.Setenv("HP_ENV", "")
	t.Setenv("HP_DEBUG", "")

	tests := []struct {
		name     string
		code     Status
		expected string
	}{
		{
			name:     "STATUS_SUCCESS",
			code:     Success,
			expected: "status: success",
		},
		{
			name:     "STATUS_UNSUCCESSFUL",
			code:     Unsuccessful,
			expected: "status: unsuccessful (STATUS_UNSUCCESSFUL) - the operation failed",
		},
		{
			name:     "STATUS_CANCELLED",
			code:     Cancelled,
			expected: "status: cancelled (STATUS_CANCELLED) - host OS version or memory layout is not supported",
		},
		{
			name:     "STATUS_INSUFFICIENT_RESOURCES",
			code:     InsufficientResources,
			expected: "status: insufficient resources (STATUS_INSUFFICIENT_RESOURCES) - pool allocation failed",
		},
		{
			name:     "Unknown code",
			code:     0xC0001234,
			expected: "status: unknown code 0xC0001234",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.code.Error(); got != tt.expected {
				t.Errorf("Status(0x%08x).Error() = %q, want %q", uint32(tt.code), got, tt.expected)
			}
		})
	}
}

func TestSanitizedError(t *testing.T) {
	t.Setenv("HP_ENV", "production")

	msg := Cancelled.Error()
	if msg != "status: cancelled" {
		t.Errorf("sanitized message = %q", msg)
	}
	if strings.Contains(Status(0xC0001234).Error(), "0xC0001234") {
		t.Error("sanitized unknown code should not leak the raw value")
	}

	t.Setenv("HP_ENV", "")
	t.Setenv("HP_DEBUG", "false")
	assert.Equal(t, "status: unsuccessful", Unsuccessful.Error())
}

func TestIsSuccess(t *testing.T) {
	assert.True(t, Success.IsSuccess())
	assert.True(t, Status(0x40000000).IsSuccess(), "informational codes succeed")
	assert.False(t, Unsuccessful.IsSuccess())
	assert.False(t, ReinitializationNeeded.IsSuccess())
	assert.NoError(t, Success.Err())
	assert.Equal(t, error(Cancelled), Cancelled.Err())
}

func TestOf(t *testing.T) {
	custom := New(InsufficientResources, "pool exhausted")

	tests := []struct {
		name string
		err  error
		want Status
	}{
		{"nil", nil, Success},
		{"bare status", Cancelled, Cancelled},
		{"wrapped status", fmt.Errorf("perf: %w", NotSupported), NotSupported},
		{"custom error", custom, InsufficientResources},
		{"wrapped custom error", fmt.Errorf("stage: %w", custom), InsufficientResources},
		{"foreign error", errors.New("boom"), Unsuccessful},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Of(tt.err))
		})
	}
}

func TestErrorIs(t *testing.T) {
	err := New(Cancelled, "unsupported host")
	assert.True(t, errors.Is(err, Cancelled))
	assert.False(t, errors.Is(err, Unsuccessful))
	assert.Equal(t, "unsupported host", err.Error())
	assert.Equal(t, Cancelled.Error(), New(Cancelled, "").Error())
}
