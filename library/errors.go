package library

import "errors"

var (
	// ErrNotFound is returned when an id does not match any record.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when adding a record whose id is already taken.
	ErrConflict = errors.New("already exists")
	// ErrInvalidState is returned when outstanding loans or availability forbid an operation.
	ErrInvalidState = errors.New("invalid state")
	// ErrInvalidInput is returned for empty ids and negative counts.
	ErrInvalidInput = errors.New("invalid input")
	// ErrMalformedRecord marks a persisted record that could not be parsed.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrStorage wraps failures to read or write the backing store.
	ErrStorage = errors.New("storage failure")
)
