// Package status defines NTSTATUS-style result codes shared by the driver
// and its subsystems.
package status

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

// Status is a 32-bit NTSTATUS value. The two high bits hold the severity.
type Status uint32

const (
	Success                Status = 0x00000000
	Unsuccessful           Status = 0xC0000001
	InvalidParameter       Status = 0xC000000D
	InsufficientResources  Status = 0xC000009A
	NotSupported           Status = 0xC00000BB
	Cancelled              Status = 0xC0000120
	ReinitializationNeeded Status = 0xC0000287
	HVNotPresent           Status = 0xC0351000
)

// IsSuccess reports whether s is a success or informational code.
func (s Status) IsSuccess() bool {
	return s < 0x80000000
}

// Err returns nil for success codes and s otherwise.
func (s Status) Err() error {
	if s.IsSuccess() {
		return nil
	}
	return s
}

func (s Status) Error() string {
	if isProductionEnv() {
		return s.sanitizedError()
	}
	return s.detailedError()
}

func (s Status) String() string {
	return fmt.Sprintf("0x%08X", uint32(s))
}

func (s Status) detailedError() string {
	switch s {
	case Success:
		return "status: success"
	case Unsuccessful:
		return "status: unsuccessful (STATUS_UNSUCCESSFUL) - the operation failed"
	case InvalidParameter:
		return "status: invalid parameter (STATUS_INVALID_PARAMETER) - check configuration values"
	case InsufficientResources:
		return "status: insufficient resources (STATUS_INSUFFICIENT_RESOURCES) - pool allocation failed"
	case NotSupported:
		return "status: not supported (STATUS_NOT_SUPPORTED) - feature not available on this host"
	case Cancelled:
		return "status: cancelled (STATUS_CANCELLED) - host OS version or memory layout is not supported"
	case ReinitializationNeeded:
		return "status: reinitialization needed (STATUS_REINITIALIZATION_NEEDED) - retry once the host is further along"
	case HVNotPresent:
		return "status: hypervisor not present (STATUS_HV_NOT_PRESENT) - processor virtualization unavailable"
	default:
		return fmt.Sprintf("status: unknown code 0x%08X", uint32(s))
	}
}

func (s Status) sanitizedError() string {
	switch s {
	case Success:
		return "status: success"
	case Unsuccessful:
		return "status: unsuccessful"
	case InvalidParameter:
		return "status: invalid parameter"
	case InsufficientResources:
		return "status: insufficient resources"
	case NotSupported:
		return "status: not supported"
	case Cancelled:
		return "status: cancelled"
	case ReinitializationNeeded:
		return "status: reinitialization needed"
	case HVNotPresent:
		return "status: hypervisor not present"
	default:
		return "status: error"
	}
}

// isProductionEnv checks HP_ENV and HP_DEBUG for a production deployment.
func isProductionEnv() bool {
	env := os.Getenv("HP_ENV")
	if env == "production" || env == "prod" {
		return true
	}

	if debug := os.Getenv("HP_DEBUG"); debug != "" {
		if val, err := strconv.ParseBool(debug); err == nil && !val {
			return true
		}
	}

	return false
}

// Error is a Status carrying a fixed message.
type Error struct {
	Code    Status
	message string
}

// New returns an Error with the given code and message.
func New(code Status, message string) *Error {
	return &Error{Code: code, message: message}
}

func (e *Error) Error() string {
	if e.message != "" {
		return e.message
	}
	return e.Code.Error()
}

// Is matches a bare Status with the same code.
func (e *Error) Is(target error) bool {
	if s, ok := target.(Status); ok {
		return e.Code == s
	}
	return false
}

// StatusCode returns s.
func (s Status) StatusCode() Status { return s }

// StatusCode returns the carried code.
func (e *Error) StatusCode() Status { return e.Code }

type coder interface {
	error
	StatusCode() Status
}

// Of extracts the first Status carried in err's tree. Errors that carry no
// code map to Unsuccessful; nil maps to Success.
func Of(err error) Status {
	if err == nil {
		return Success
	}
	var c coder
	if errors.As(err, &c) {
		return c.StatusCode()
	}
	return Unsuccessful
}
