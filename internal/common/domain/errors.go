package domain

import "fmt"

// CurrencyIDR is the only currency the rental service quotes in.
const CurrencyIDR = "IDR"

// ValidationError signals malformed or incomplete input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NewValidationError creates a ValidationError.
func NewValidationError(message string) error {
	return &ValidationError{Message: message}
}

// NotFoundError signals that an entity does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// NewNotFoundError creates a NotFoundError for the given entity and identifier.
func NewNotFoundError(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// ConflictError signals a concurrent modification or duplicate.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// NewConflictError creates a ConflictError.
func NewConflictError(message string) error {
	return &ConflictError{Message: message}
}

// ForbiddenError signals that the caller may not act on the resource.
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string { return e.Message }

// NewForbiddenError creates a ForbiddenError.
func NewForbiddenError(message string) error {
	return &ForbiddenError{Message: message}
}

// InvalidStateError signals a disallowed state transition.
type InvalidStateError struct {
	From string
	To   string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid state transition from %s to %s", e.From, e.To)
}

// NewInvalidStateError creates an InvalidStateError.
func NewInvalidStateError(from, to string) error {
	return &InvalidStateError{From: from, To: to}
}

// UnavailableError signals a dependency failure the client may retry.
type UnavailableError struct {
	Message string
	Err     error
}

func (e *UnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// NewUnavailableError wraps err as a retryable failure.
func NewUnavailableError(message string, err error) error {
	return &UnavailableError{Message: message, Err: err}
}
