package delayunit

import "errors"

// Controller errors
var (
	// ErrNegativeTime indicates a negative delay or width was requested
	ErrNegativeTime = errors.New("time value must not be negative")

	// ErrZeroTarget indicates an edge count target of zero
	ErrZeroTarget = errors.New("edge count target must be positive")

	// ErrNoBoardFound indicates no matching board was enumerated
	ErrNoBoardFound = errors.New("no DelayUnit board found")

	// ErrShortWrite indicates the transport accepted fewer bytes than
	// the command frame
	ErrShortWrite = errors.New("short write")

	// ErrInvalidSelector indicates a malformed device selector string
	ErrInvalidSelector = errors.New("invalid device selector")

	// ErrClosed indicates use of a closed controller
	ErrClosed = errors.New("device is closed")
)
