package factory

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nerrad567/beamline-core/internal/device"
)

// Domain errors for the factory package.
//
// Bulk operations never return these directly; they record typed errors
// per device name, each of which matches one sentinel via errors.Is.
var (
	// ErrFactoryFailed matches *FactoryError.
	ErrFactoryFailed = errors.New("factory: build failed")

	// ErrConnectFailed matches *ConnectError.
	ErrConnectFailed = errors.New("factory: connect failed")

	// ErrTimedOut matches *TimeoutError.
	ErrTimedOut = errors.New("factory: connect timed out")

	// ErrNotConnected matches *NotConnectedError.
	ErrNotConnected = errors.New("factory: devices not connected")

	// ErrBuildInProgress is the cause recorded when a factory is asked for
	// its device while that device is still being built, which means a
	// dependency cycle between factories.
	ErrBuildInProgress = errors.New("factory: build already in progress")

	// ErrNilDevice is the cause recorded when a factory returns no device
	// and no error.
	ErrNilDevice = errors.New("factory: factory returned nil device")
)

// FactoryError reports that the factory behind Name failed.
type FactoryError struct {
	Name string
	Err  error
}

func (e *FactoryError) Error() string {
	return fmt.Sprintf("factory %s failed: %v", e.Name, e.Err)
}

// Is matches ErrFactoryFailed.
func (e *FactoryError) Is(target error) bool { return target == ErrFactoryFailed }

func (e *FactoryError) Unwrap() error { return e.Err }

// ConnectError reports that the device Name returned an error from its
// connection routine.
type ConnectError struct {
	Name string
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("device %s failed to connect: %v", e.Name, e.Err)
}

// Is matches ErrConnectFailed.
func (e *ConnectError) Is(target error) bool { return target == ErrConnectFailed }

func (e *ConnectError) Unwrap() error { return e.Err }

// TimeoutError reports that the device Name did not connect in time.
type TimeoutError struct {
	Name    string
	Timeout time.Duration
	Err     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("device %s did not connect within %v", e.Name, e.Timeout)
}

// Is matches ErrTimedOut.
func (e *TimeoutError) Is(target error) bool { return target == ErrTimedOut }

func (e *TimeoutError) Unwrap() error { return e.Err }

// NotConnectedError aggregates every failure of a bulk run, keyed by
// device name in declaration order.
type NotConnectedError struct {
	Failures *Failures
}

func (e *NotConnectedError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "factory: %d devices not connected", e.Failures.Len())
	for name, err := range e.Failures.All() {
		fmt.Fprintf(&b, "\n  %s: %v", name, err)
	}
	return b.String()
}

// Is matches ErrNotConnected.
func (e *NotConnectedError) Is(target error) bool { return target == ErrNotConnected }

// Unwrap exposes the per-device errors to errors.Is and errors.As.
func (e *NotConnectedError) Unwrap() []error {
	out := make([]error, 0, e.Failures.Len())
	for _, err := range e.Failures.All() {
		out = append(out, err)
	}
	return out
}

// Kind classifies a per-device failure for reports and metrics.
type Kind string

const (
	KindFactoryFailed Kind = "factory_failed"
	KindDuplicateName Kind = "duplicate_name"
	KindConnectFailed Kind = "connect_failed"
	KindTimedOut      Kind = "timed_out"
	KindUnknown       Kind = "unknown"
)

// KindOf returns the Kind of err.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrTimedOut):
		return KindTimedOut
	case errors.Is(err, ErrConnectFailed):
		return KindConnectFailed
	case errors.Is(err, device.ErrDuplicateName):
		return KindDuplicateName
	case errors.Is(err, ErrFactoryFailed):
		return KindFactoryFailed
	default:
		return KindUnknown
	}
}
