package hyperplatform

import (
	"errors"
	"fmt"

	"github.com/blacktop/go-hyperplatform/internal/status"
)

var (
	// ErrCancelled matches only the errors Start returns for an unsupported
	// host. Stage failures never match it, whatever their status code.
	ErrCancelled = errors.New("hyperplatform: load cancelled")

	ErrAlreadyStarted     = errors.New("hyperplatform: driver already started")
	ErrUnsupportedVersion = errors.New("unsupported OS version")
	ErrUnsupportedLayout  = errors.New("unsupported memory layout")
)

// UnsupportedError reports a failed compatibility gate. No stage was
// entered.
type UnsupportedError struct {
	Reason error
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("hyperplatform: host not supported: %v", e.Reason)
}

func (e *UnsupportedError) Unwrap() []error {
	return []error{ErrCancelled, status.Cancelled, e.Reason}
}

// StageError reports the stage whose Init failed. Every earlier stage was
// torn down before Start returned.
type StageError struct {
	Stage string
	Index int
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("hyperplatform: stage %d (%s) failed: %v", e.Index, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
