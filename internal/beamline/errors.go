package beamline

import "errors"

var (
	// ErrInvalidID is returned when a beamline identifier does not match
	// the letter-two-digit form, optionally followed by "-N".
	ErrInvalidID = errors.New("beamline: invalid identifier")

	// ErrNotSet is returned when the prefix is read before Set.
	ErrNotSet = errors.New("beamline: not set")
)
