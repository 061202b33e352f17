package domain

import (
	"fmt"

	"github.com/boddenberg/shop-billing-bfa-go/internal/money"
)

// Error types for consistent error handling across the service.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrValidation indicates a validation error (bad input). Rejected before any
// store call is made.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrStore indicates a ledger or balance store operation failed. Write
// failures are always surfaced, never swallowed.
type ErrStore struct {
	Op  string
	Err error
}

func (e *ErrStore) Error() string {
	return fmt.Sprintf("store error [%s]: %v", e.Op, e.Err)
}

func (e *ErrStore) Unwrap() error {
	return e.Err
}

// ErrConsistency indicates a bill write succeeded but the following balance
// propagation failed: ledger and customer account disagree until reconciled.
// Carries everything needed to reconcile manually or automatically.
type ErrConsistency struct {
	BillID           string
	CustomerKey      string
	AttemptedBalance money.Cents
	Err              error
}

func (e *ErrConsistency) Error() string {
	return fmt.Sprintf("balance propagation failed for bill %s (customer %s, attempted balance %s): %v",
		e.BillID, e.CustomerKey, money.Format(e.AttemptedBalance), e.Err)
}

func (e *ErrConsistency) Unwrap() error {
	return e.Err
}

// ErrConflict indicates a conditional write lost a race: the stored value no
// longer matched the expected one.
type ErrConflict struct {
	Resource string
	Message  string
}

func (e *ErrConflict) Error() string {
	return fmt.Sprintf("conflict on %s: %s", e.Resource, e.Message)
}

// ErrTimeout indicates an operation exceeded its deadline. A timeout is a
// retryable failure, never an implicit success.
type ErrTimeout struct {
	Operation string
}

func (e *ErrTimeout) Error() string {
	return fmt.Sprintf("operation timed out: %s", e.Operation)
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrExternalService indicates a failure in an external service call.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrDuplicate indicates an insert collided with an existing row.
type ErrDuplicate struct {
	Key string
}

func (e *ErrDuplicate) Error() string {
	return fmt.Sprintf("duplicate: %s", e.Key)
}
