package application

import "errors"

var (
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrPermissionDenied is returned when the acting user lacks permission
	// for an operation. It is always raised before any state is written.
	ErrPermissionDenied = errors.New("application: permission denied")
	// ErrInvalidState is returned when the operation is not valid for the
	// current event or slot status.
	ErrInvalidState = errors.New("application: invalid state")
	// ErrConflict is returned when the write would violate an occupancy
	// invariant, e.g. assigning to an occupied slot.
	ErrConflict = errors.New("application: conflict")
	// ErrCycleDetected is returned when a node mutation would close a cycle
	// in the communication tree.
	ErrCycleDetected = errors.New("application: cycle detected")
)

// ValidationError captures field level validation issues that callers can
// surface to users. It is always raised before any write.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}
