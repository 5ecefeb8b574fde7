package spaced_repetition

import "errors"

// Sentinel errors. Check with errors.Is.
var (
	ErrInvalidParams        = errors.New("spaced_repetition: parameters out of range")
	ErrInvalidOutcome       = errors.New("spaced_repetition: invalid outcome")
	ErrInconsistentCalendar = errors.New("spaced_repetition: inconsistent review calendar")
)
