package dto

import (
	"errors"
	"net/http"

	"github.com/minegocio/backend/internal/domain/shared"
)

// Error codes. The domain codes are passed through unchanged so clients see
// the same vocabulary the services use.
const (
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeAlreadyExists       = "ALREADY_EXISTS"
	ErrCodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeInvalidState        = "INVALID_STATE"
	ErrCodeInsufficientStock   = "INSUFFICIENT_STOCK"
	ErrCodeConsistency         = "CONSISTENCY_VIOLATION"
)

// Transport-only codes
const (
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
	ErrCodeInternal        = "INTERNAL_ERROR"
	ErrCodeRouteNotFound   = "ROUTE_NOT_FOUND"
	ErrCodeInProgress      = "REQUEST_IN_PROGRESS"
	ErrCodeRateLimited     = "RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeValidation:          http.StatusBadRequest,
	ErrCodeBadRequest:          http.StatusBadRequest,
	ErrCodeUnauthorized:        http.StatusUnauthorized,
	ErrCodeForbidden:           http.StatusForbidden,
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeRouteNotFound:       http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeInProgress:          http.StatusConflict,
	ErrCodeRequestTooLarge:     http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited:         http.StatusTooManyRequests,
	ErrCodeInvalidState:        http.StatusUnprocessableEntity,
	ErrCodeInsufficientStock:   http.StatusUnprocessableEntity,
	ErrCodeConsistency:         http.StatusInternalServerError,
	ErrCodeInternal:            http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes are treated as internal errors.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// FromError translates a service error into the response error body.
// Anything that is not a domain error becomes INTERNAL_ERROR with a generic
// message so internals never leak to clients.
func FromError(err error) *ErrorInfo {
	var validation *shared.ValidationError
	if errors.As(err, &validation) {
		return &ErrorInfo{
			Code:    ErrCodeValidation,
			Message: "Request validation failed",
			Details: map[string]any{"fields": validation.Fields},
		}
	}

	var stock *shared.InsufficientStockError
	if errors.As(err, &stock) {
		return &ErrorInfo{
			Code:    ErrCodeInsufficientStock,
			Message: shared.ErrInsufficientStock.Message,
			Details: map[string]any{
				"product_id":      stock.ProductID,
				"product_name":    stock.ProductName,
				"requested":       stock.Requested,
				"available_stock": stock.Available,
			},
		}
	}

	var conflict *shared.ConcurrencyError
	if errors.As(err, &conflict) {
		return &ErrorInfo{
			Code:    ErrCodeConcurrencyConflict,
			Message: shared.ErrConcurrencyConflict.Message,
			Details: map[string]any{"retryable": true},
		}
	}

	var violation *shared.ConsistencyViolation
	if errors.As(err, &violation) {
		return &ErrorInfo{Code: ErrCodeConsistency, Message: "An unexpected error occurred"}
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return &ErrorInfo{Code: domainErr.Code, Message: domainErr.Message}
	}

	return &ErrorInfo{Code: ErrCodeInternal, Message: "An unexpected error occurred"}
}
