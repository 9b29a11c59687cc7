package element

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoPage is returned when a command requires a current page and none is
// selected.
var ErrNoPage = errors.New("browse: no page selected")

// NotFoundError is returned when a uid is absent from the current epoch or
// every resolution strategy was exhausted.
type NotFoundError struct {
	UID    string
	Reason string
}

func (e *NotFoundError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("browse: element not found: %s", e.UID)
	}
	return fmt.Sprintf("browse: element not found: %s (%s)", e.UID, e.Reason)
}

// StaleError is returned when a resolved handle became invalid between
// resolution and use. Callers treat it like NotFoundError; the distinct type
// is kept so retry-aware callers can tell recoverable staleness from
// permanent absence.
type StaleError struct {
	UID string
}

func (e *StaleError) Error() string {
	return fmt.Sprintf("browse: stale element: %s", e.UID)
}

// IsNotFound reports whether err is a NotFoundError or a StaleError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	var st *StaleError
	return errors.As(err, &nf) || errors.As(err, &st)
}

// TimeoutError is returned when a bounded wait exceeds its deadline.
type TimeoutError struct {
	Op      string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("browse: %s timed out after %s", e.Op, e.Timeout)
}

// DriverError wraps a failure reported by the underlying browser driver.
type DriverError struct {
	Op    string
	Cause error
}

func (e *DriverError) Error() string {
	return fmt.Sprintf("browse: driver %s: %v", e.Op, e.Cause)
}

func (e *DriverError) Unwrap() error { return e.Cause }
