package history

import "errors"

var (
	// ErrRunNotFound is returned when a run ID is not in the database.
	ErrRunNotFound = errors.New("history: run not found")

	// ErrNilReport is returned when RecordRun is given no report.
	ErrNilReport = errors.New("history: nil report")
)
