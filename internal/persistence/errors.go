package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrConflict is returned when a conditional write loses to current
	// state, e.g. occupying a slot that is already taken.
	ErrConflict = errors.New("persistence: conflict")
	// ErrDuplicate is returned when a record with the same identity already
	// exists.
	ErrDuplicate = errors.New("persistence: duplicate")
	// ErrForeignKeyViolation is returned when a referenced record is absent.
	ErrForeignKeyViolation = errors.New("persistence: foreign key violation")
)
