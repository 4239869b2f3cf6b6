package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument marks caller bugs detected before any store access.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound is returned by point reads of a missing document.
	ErrNotFound = errors.New("not found")
	// ErrMalformedRecord marks stored documents missing a required field.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrConcurrentUpdateConflict is returned when a review could not be committed within the retry budget.
	ErrConcurrentUpdateConflict = errors.New("concurrent update conflict")
	// ErrStoreUnavailable wraps transport and availability failures of the backing store.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// InvalidArgument builds an error matching ErrInvalidArgument.
func InvalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// MalformedRecordError reports a stored document that violates the data model.
// It indicates upstream data corruption, not a recoverable condition.
type MalformedRecordError struct {
	Collection string
	ID         string
	Field      string
	Reason     string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record %s/%s: field %q %s", e.Collection, e.ID, e.Field, e.Reason)
}

func (e *MalformedRecordError) Is(target error) bool {
	return target == ErrMalformedRecord
}
