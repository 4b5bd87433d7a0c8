package apierror

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is malformed caller input: missing field, wrong type, empty string.
	ErrValidation = errors.New("validation error")
	// ErrNotFound is a reference to a product, log or backup that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrRemoteUnavailable is a network failure, timeout or non-2xx from a remote collaborator.
	ErrRemoteUnavailable = errors.New("remote unavailable")
	// ErrInvalidFormat is a fetched or imported document that does not match the schema.
	ErrInvalidFormat = errors.New("invalid format")
	// ErrStorageFailure is an environmental persistence failure (quota, disk, driver).
	ErrStorageFailure = errors.New("storage failure")
	// ErrDenied is a credential pair that does not match the credential table.
	ErrDenied = errors.New("invalid credentials")
	// ErrForbidden is an authenticated identity whose role may not perform the action.
	ErrForbidden = errors.New("permission denied")
)

// ValidationError names the offending field and, for collections, the first
// offending index. Index is -1 when the error is not about a collection item.
type ValidationError struct {
	Index  int
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("item at index %d: %s %s", e.Index, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Invalid builds a ValidationError for a single field.
func Invalid(field, reason string) error {
	return &ValidationError{Index: -1, Field: field, Reason: reason}
}

// InvalidItem builds a ValidationError for the item at index.
func InvalidItem(index int, field, reason string) error {
	return &ValidationError{Index: index, Field: field, Reason: reason}
}

// NotFound wraps ErrNotFound with the missing entity.
func NotFound(entity string, id any) error {
	return fmt.Errorf("%s %v: %w", entity, id, ErrNotFound)
}
