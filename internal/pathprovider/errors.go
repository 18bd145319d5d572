package pathprovider

import "errors"

var (
	// ErrNotConfigured is returned by Slot.Get before a provider is set.
	ErrNotConfigured = errors.New("pathprovider: not configured")

	// ErrNoCollection is returned when file info is requested before the
	// first collection number has been drawn.
	ErrNoCollection = errors.New("pathprovider: no active collection")

	// ErrNumtracker is returned when the remote collection service fails.
	ErrNumtracker = errors.New("pathprovider: numtracker request failed")
)
