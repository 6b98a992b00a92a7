package reminder

import "errors"

var (
	// ErrRunInProgress is returned by Scanner.Run when another run in this
	// process has not finished yet.
	ErrRunInProgress = errors.New("reminder scan already in progress")

	// ErrRunLocked is returned when another process holds the run lock.
	ErrRunLocked = errors.New("reminder scan locked by another process")
)
