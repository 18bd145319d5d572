package device

import (
	"errors"
	"fmt"
)

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrDuplicateName) {
//	    // two different device types claimed the same name
//	}
var (
	// ErrNotFound is returned when no device is registered under a name.
	ErrNotFound = errors.New("device: not found")

	// ErrDuplicateName is returned when a name is already taken by a device
	// of a different concrete type.
	ErrDuplicateName = errors.New("device: duplicate name")

	// ErrInvalidName is returned when registering under an empty name.
	ErrInvalidName = errors.New("device: invalid name")

	// ErrNilDevice is returned when registering a nil device.
	ErrNilDevice = errors.New("device: nil device")
)

// DuplicateNameError carries the conflicting types for a rejected registration.
type DuplicateNameError struct {
	Name     string
	Existing string
	Incoming string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("device: duplicate name %q: registered as %s, got %s", e.Name, e.Existing, e.Incoming)
}

// Is matches ErrDuplicateName.
func (e *DuplicateNameError) Is(target error) bool {
	return target == ErrDuplicateName
}
