package errors

import "fmt"

// ErrorCode represents a quip error code.
type ErrorCode string

const (
	ErrValidation  ErrorCode = "VALIDATION"  // 400: required input missing, operation aborted
	ErrNotFound    ErrorCode = "NOT_FOUND"   // 404: absent-result signal, caller decides no-op vs message
	ErrUnreachable ErrorCode = "UNREACHABLE" // 502: messaging target not available, recovered locally
	ErrPersistence ErrorCode = "PERSISTENCE" // 500: storage write rejected, no automatic retry
	ErrInternal    ErrorCode = "INTERNAL"    // 500
)

// QuipError represents a structured error with code, status, and details.
type QuipError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *QuipError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewValidation creates a 400 error for a missing or invalid required field.
func NewValidation(msg string) *QuipError {
	return &QuipError{
		Code:    ErrValidation,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when a comment cannot be found.
func NewNotFound(id string) *QuipError {
	return &QuipError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("comment not found: %s", id),
		Details: map[string]any{"id": id},
	}
}

// NewUnreachable creates a 502 error for an absent messaging target.
// Callers are expected to recover by falling back to clipboard-only UX.
func NewUnreachable(target string) *QuipError {
	return &QuipError{
		Code:    ErrUnreachable,
		Status:  502,
		Message: fmt.Sprintf("context not reachable: %s", target),
		Details: map[string]any{"target": target},
	}
}

// NewPersistence creates a 500 error for a rejected storage write.
func NewPersistence(err error) *QuipError {
	msg := "storage write failed"
	if err != nil {
		msg = fmt.Sprintf("storage write failed: %v", err)
	}
	return &QuipError{
		Code:    ErrPersistence,
		Status:  500,
		Message: msg,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *QuipError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &QuipError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a QuipError with the given code.
func Is(err error, code ErrorCode) bool {
	if qErr, ok := err.(*QuipError); ok {
		return qErr.Code == code
	}
	return false
}
