/*
errors.go - Centralized error types for the customer ledger

PURPOSE:
  All domain error types in one place for consistency and discoverability.
  The store and the HTTP layer translate to and from these; nothing in
  this package panics or logs.

ERROR CATEGORIES:
  1. Not-found errors  - unknown customer id for the given scope
  2. Validation errors - missing/negative/malformed input, with field detail
  3. State errors      - operation not valid for the current ledger state
  4. Conflict errors   - email uniqueness per owning employee

USAGE:
  Callers classify with errors.Is / errors.As:

    if errors.Is(err, ledger.ErrNoPendingPayment) { ... }

    var verr *ledger.ValidationError
    if errors.As(err, &verr) { ... verr.Fields ... }
*/
package ledger

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrCustomerNotFound is returned when no customer matches the id
	// (within the requesting employee's scope, where the operation is scoped).
	ErrCustomerNotFound = errors.New("customer not found")

	// ErrNoPendingPayment is returned when settlement is attempted with
	// nothing owed. The customer record is not mutated.
	ErrNoPendingPayment = errors.New("no pending payment for this customer")

	// ErrDuplicateCustomer is returned when a create or edit would give two
	// customers of the same employee the same email. Re-depositing to an
	// existing (email, employee) pair is NOT a conflict: it merges.
	ErrDuplicateCustomer = errors.New("customer with this email already exists")

	// ErrValidation is the root of all input validation failures.
	ErrValidation = errors.New("validation failed")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// FieldError describes one invalid input field.
type FieldError struct {
	Field string
	Msg   string
}

func (f FieldError) Error() string {
	return fmt.Sprintf("%s %s", f.Field, f.Msg)
}

// ValidationError aggregates per-field failures for one request.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	s := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		s[i] = f.Error()
	}
	return "validation failed: " + strings.Join(s, ", ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalidField(field, msg string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Msg: msg}}}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound reports whether err indicates a missing customer.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCustomerNotFound)
}

// IsClientError reports whether err is due to invalid caller input or
// state, as opposed to a storage failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNoPendingPayment) ||
		errors.Is(err, ErrDuplicateCustomer)
}
