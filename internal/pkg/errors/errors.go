package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError represents an application error with additional context
type AppError struct {
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	StatusCode int         `json:"-"`
	Internal   error       `json:"-"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	}
	return e.Message
}

// Unwrap returns the internal error for errors.Is and errors.As
func (e *AppError) Unwrap() error {
	return e.Internal
}

// Common error codes
const (
	ErrCodeInternal          = "INTERNAL_ERROR"
	ErrCodeBadRequest        = "BAD_REQUEST"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeConflict          = "CONFLICT"
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeDatabase          = "DATABASE_ERROR"
	ErrCodeInvalidTransition = "INVALID_TRANSITION"
	ErrCodeStaleRecord       = "STALE_RECORD"
	ErrCodeLockContention    = "LOCK_CONTENTION"
	ErrCodeExecutionTimeout  = "EXECUTION_TIMEOUT"
	ErrCodeRateLimited       = "RATE_LIMITED"
)

// New creates a new AppError
func New(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Wrap wraps an error with an AppError
func Wrap(err error, code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Internal:   err,
	}
}

// WithDetails adds details to an AppError
func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

// Common error constructors

// Internal creates an internal server error
func Internal(message string, err error) *AppError {
	return Wrap(err, ErrCodeInternal, message, http.StatusInternalServerError)
}

// BadRequest creates a bad request error
func BadRequest(message string) *AppError {
	return New(ErrCodeBadRequest, message, http.StatusBadRequest)
}

// Unauthorized creates an unauthorized error
func Unauthorized(message string) *AppError {
	return New(ErrCodeUnauthorized, message, http.StatusUnauthorized)
}

// Forbidden creates a forbidden error. Used when the actor's role is
// insufficient for the requested action; the action is never attempted.
func Forbidden(message string) *AppError {
	return New(ErrCodeForbidden, message, http.StatusForbidden)
}

// NotFound creates a not found error. Tenant mismatches surface through this
// same constructor so foreign-tenant probes cannot distinguish "exists in
// another tenant" from "does not exist".
func NotFound(resource string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

// Conflict creates a conflict error
func Conflict(message string) *AppError {
	return New(ErrCodeConflict, message, http.StatusConflict)
}

// InvalidTransition creates an error for a state-machine action attempted
// from a state it is not valid in. Local validation, not retryable.
func InvalidTransition(message string) *AppError {
	return New(ErrCodeInvalidTransition, message, http.StatusConflict)
}

// StaleRecord creates an error for an optimistic-concurrency failure: the
// record changed underneath the caller, who should re-read and retry.
func StaleRecord(resource string) *AppError {
	return New(ErrCodeStaleRecord, fmt.Sprintf("%s was modified concurrently", resource), http.StatusConflict)
}

// LockContention creates an error for a failed lock acquisition. Scan loops
// treat this as "skip this cycle", not as a failure.
func LockContention(resource string) *AppError {
	return New(ErrCodeLockContention, fmt.Sprintf("%s is locked by another node", resource), http.StatusConflict)
}

// ExecutionTimeout creates an error for a check or poll that exceeded its
// configured bound.
func ExecutionTimeout(message string) *AppError {
	return New(ErrCodeExecutionTimeout, message, http.StatusGatewayTimeout)
}

// ValidationError creates a validation error
func ValidationError(message string, details interface{}) *AppError {
	return New(ErrCodeValidation, message, http.StatusBadRequest).WithDetails(details)
}

// DatabaseError creates a database error
func DatabaseError(message string, err error) *AppError {
	return Wrap(err, ErrCodeDatabase, message, http.StatusInternalServerError)
}

// RateLimited creates a rate limited error
func RateLimited(message string) *AppError {
	return New(ErrCodeRateLimited, message, http.StatusTooManyRequests)
}

// IsCode reports whether err is an AppError with the given code.
func IsCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
