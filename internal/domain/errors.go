package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeInvalidOperation = "INVALID_OPERATION"
)

// Validation errors
var (
	ErrTenantIDRequired      = NewDomainError(ErrCodeValidation, "tenant id is required")
	ErrQueryRequired         = NewDomainError(ErrCodeValidation, "query is required")
	ErrObjectKeyRequired     = NewDomainError(ErrCodeValidation, "object key is required")
	ErrInvalidFilterField    = NewDomainError(ErrCodeValidation, "filter field is not filterable")
	ErrInvalidFilterOperator = NewDomainError(ErrCodeValidation, "filter operator is not supported")
	ErrObjectTooLarge        = NewDomainError(ErrCodeValidation, "object exceeds the size limit")
)

// Auth errors
var (
	ErrInvalidAPIKey = NewDomainError(ErrCodeUnauthorized, "invalid or missing API key")
)

// Not found conditions. An unknown tenant on query or delete is NOT one of
// these: queries return empty results and deletes are no-ops by contract.
var (
	ErrJobNotFound = NewDomainError(ErrCodeNotFound, "ingestion job not found")
)

// Collaborator failures
var (
	ErrStorageOperationFail = NewDomainError(ErrCodeInternalError, "storage operation failed")
	ErrQueueStopped         = NewDomainError(ErrCodeInvalidOperation, "ingestion queue is not accepting jobs")
	ErrQueueFull            = NewDomainError(ErrCodeInternalError, "ingestion queue is full")
)
