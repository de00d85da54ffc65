package shared

import (
	"fmt"
	"sort"
	"strings"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code, so that
// errors.Is(NewNotFoundError("sale", 3), ErrNotFound) holds.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound             = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists        = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput         = NewDomainError("VALIDATION_ERROR", "Invalid input provided")
	ErrConcurrencyConflict  = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrUnauthorized         = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrForbidden            = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")
	ErrInvalidState         = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrInsufficientStock    = NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")
	ErrConsistencyViolation = NewDomainError("CONSISTENCY_VIOLATION", "Inventory invariant violated")
)

// NewNotFoundError builds a NOT_FOUND error naming the missing entity.
func NewNotFoundError(entity string, id int64) *DomainError {
	return NewDomainError(ErrNotFound.Code, fmt.Sprintf("%s %d not found", entity, id))
}

// ValidationError carries field-level details for malformed input.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

// NewValidationError creates a validation error for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// Add records another invalid field and returns the receiver.
func (e *ValidationError) Add(field, message string) *ValidationError {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = message
	return e
}

// HasErrors reports whether any field was recorded.
func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Fields) > 0
}

// Error implements the error interface. Fields are listed in name order.
func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap lets errors.Is match ErrInvalidInput.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// InsufficientStockError is returned when a sale would take more units than
// the locked product row holds.
type InsufficientStockError struct {
	ProductID   int64
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d (%s): requested %d, available %d",
		e.ProductID, e.ProductName, e.Requested, e.Available)
}

// Unwrap lets errors.Is match ErrInsufficientStock.
func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// ConcurrencyError signals a lock timeout, deadlock, serialization failure or
// stale version. The whole transaction has been rolled back and the operation
// may be retried.
type ConcurrencyError struct {
	Op  string
	Err error
}

func (e *ConcurrencyError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, ErrConcurrencyConflict.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, ErrConcurrencyConflict.Message, e.Err)
}

func (e *ConcurrencyError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrConcurrencyConflict}
	}
	return []error{ErrConcurrencyConflict, e.Err}
}

// NewConcurrencyError wraps cause as a retryable conflict.
func NewConcurrencyError(op string, cause error) *ConcurrencyError {
	return &ConcurrencyError{Op: op, Err: cause}
}

// ConsistencyViolation is an internal fault: a stock or total would break an
// invariant that the engine is supposed to guarantee.
type ConsistencyViolation struct {
	Entity string
	ID     int64
	Detail string
}

func (e *ConsistencyViolation) Error() string {
	return fmt.Sprintf("consistency violation on %s %d: %s", e.Entity, e.ID, e.Detail)
}

// Unwrap lets errors.Is match ErrConsistencyViolation.
func (e *ConsistencyViolation) Unwrap() error {
	return ErrConsistencyViolation
}
