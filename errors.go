package daybook

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")

	// ErrStatusChanged is returned when a conditional status write finds the
	// task in a different status than the transition expects.
	ErrStatusChanged = errors.New("status changed")

	// ErrUpstreamUnavailable is returned when the extractor cannot be reached
	// or does not answer in time.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrExtractionMalformed is returned when the extractor answers with
	// something other than one schema-valid JSON object.
	ErrExtractionMalformed = errors.New("extraction malformed")
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConflictError is returned when a new task overlaps Task.
type ConflictError struct {
	Task Task
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("task overlaps with %q (%s - %s)",
		e.Task.Description,
		e.Task.StartTime.Format("Jan 2 3:04 PM"),
		e.Task.EndTime.Format("3:04 PM"),
	)
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsConflict(err error) bool {
	var c *ConflictError
	return errors.As(err, &c)
}
