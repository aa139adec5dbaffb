package sales

import (
	"errors"
	"fmt"
)

// ValidationError reports a malformed, missing or out-of-range field.
// Position is the 1-based index of the offending line item, or 0.
type ValidationError struct {
	Field    string
	Position int
	Message  string
}

func (e *ValidationError) Error() string {
	if e.Position > 0 {
		return fmt.Sprintf("item %d: %s", e.Position, e.Message)
	}
	return e.Message
}

// AuthorizationError is returned when the acting principal's role or
// ownership does not allow the operation.
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string {
	if e.Message == "" {
		return "forbidden"
	}
	return e.Message
}

// NotFoundError is returned for a well-formed identifier with no match.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

// PersistenceError wraps a failure of the storage or directory collaborator.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

var (
	// ErrNoItems is returned for an empty or non-sequence item list.
	ErrNoItems = &ValidationError{Field: "items", Message: "sale must contain at least one product"}

	// ErrNonPositiveTotal is returned when the derived total is not above zero.
	ErrNonPositiveTotal = &ValidationError{Field: "total_amount", Message: "total_amount must be greater than zero"}

	// ErrTotalTooLarge is returned when the derived total exceeds MaxAmount.
	ErrTotalTooLarge = &ValidationError{Field: "total_amount", Message: "total_amount must not exceed 9999999999.99"}

	// ErrInvalidID is returned for a sale identifier that is not a UUID.
	ErrInvalidID = &ValidationError{Field: "id", Message: "invalid sale id"}

	// ErrInvalidStatus is returned for a status outside the known values.
	ErrInvalidStatus = &ValidationError{Field: "status", Message: "status must be one of: completed, cancelled"}

	// ErrInvalidPaymentMethod is returned for a payment method outside the known values.
	ErrInvalidPaymentMethod = &ValidationError{Field: "payment_method", Message: "payment_method must be one of: cash, card"}
)

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
