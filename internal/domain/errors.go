package domain

import "fmt"

// NotFoundError represents a missing resource.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is enables errors.Is matching on NotFoundError.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

// UnauthenticatedError is returned when no caller identity is present.
type UnauthenticatedError struct{}

func (e UnauthenticatedError) Error() string {
	return "authentication required"
}

func (e UnauthenticatedError) Is(target error) bool {
	_, ok := target.(UnauthenticatedError)
	if ok {
		return true
	}
	_, ok = target.(*UnauthenticatedError)
	return ok
}

// InvalidOperationError covers self-referential actions and malformed payloads.
type InvalidOperationError struct {
	Reason string
}

func (e InvalidOperationError) Error() string {
	if e.Reason == "" {
		return "invalid operation"
	}
	return e.Reason
}

func (e InvalidOperationError) Is(target error) bool {
	_, ok := target.(InvalidOperationError)
	if ok {
		return true
	}
	_, ok = target.(*InvalidOperationError)
	return ok
}

// ForbiddenError means the caller has no authority over the requested transition.
type ForbiddenError struct {
	Reason string
}

func (e ForbiddenError) Error() string {
	if e.Reason == "" {
		return "forbidden"
	}
	return e.Reason
}

func (e ForbiddenError) Is(target error) bool {
	_, ok := target.(ForbiddenError)
	if ok {
		return true
	}
	_, ok = target.(*ForbiddenError)
	return ok
}

// ConflictError means the relationship is already in a state that rejects the action.
type ConflictError struct {
	Reason string
}

func (e ConflictError) Error() string {
	if e.Reason == "" {
		return "conflict"
	}
	return e.Reason
}

func (e ConflictError) Is(target error) bool {
	_, ok := target.(ConflictError)
	if ok {
		return true
	}
	_, ok = target.(*ConflictError)
	return ok
}

// DuplicateError is raised by the store when a unique key is violated on insert.
// It also matches ConflictError so that an unresolved race still maps to a conflict.
type DuplicateError struct {
	Resource string
}

func (e DuplicateError) Error() string {
	return fmt.Sprintf("%s already exists", e.Resource)
}

func (e DuplicateError) Is(target error) bool {
	switch target.(type) {
	case DuplicateError, *DuplicateError, ConflictError, *ConflictError:
		return true
	}
	return false
}

var (
	// ErrNotFound is the sentinel error for missing resources.
	ErrNotFound         = NotFoundError{}
	ErrUnauthenticated  = UnauthenticatedError{}
	ErrInvalidOperation = InvalidOperationError{}
	ErrForbidden        = ForbiddenError{}
	ErrConflict         = ConflictError{}
	ErrDuplicate        = DuplicateError{}
)
