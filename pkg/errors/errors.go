package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes returned inside the response envelope.
const (
	CodeValidation     = "VALIDATION_ERROR"
	CodeAuthentication = "AUTHENTICATION_ERROR"
	CodeAuthorization  = "AUTHORIZATION_ERROR"
	CodeNotFound       = "NOT_FOUND"
	CodeRateLimited    = "RATE_LIMITED"
	CodePersistence    = "PERSISTENCE_ERROR"
)

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AppError is the error type every service returns. Status drives the HTTP
// response, Code is the stable machine-readable identifier, Fields carries
// the per-field breakdown for validation failures and Err the wrapped cause
// (logged, never serialized).
type AppError struct {
	Code    string       `json:"code"`
	Status  int          `json:"-"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
	Err     error        `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Validation builds a 400 error with an optional field-level breakdown.
func Validation(message string, fields ...FieldError) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Status:  http.StatusBadRequest,
		Message: message,
		Fields:  fields,
	}
}

// Unauthenticated means no caller identity could be resolved.
func Unauthenticated(message string) *AppError {
	return &AppError{Code: CodeAuthentication, Status: http.StatusUnauthorized, Message: message}
}

// Forbidden means the caller is known but not allowed. The message must not
// confirm anything about the resource beyond the denial itself.
func Forbidden(message string) *AppError {
	return &AppError{Code: CodeAuthorization, Status: http.StatusForbidden, Message: message}
}

// NotFound means the identifier did not resolve.
func NotFound(resource string) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Status:  http.StatusNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// RateLimited maps to 429.
func RateLimited(message string) *AppError {
	return &AppError{Code: CodeRateLimited, Status: http.StatusTooManyRequests, Message: message}
}

// Persistence wraps a data-store failure. The cause is kept for logging but
// the caller only ever sees the generic message.
func Persistence(op string, err error) *AppError {
	return &AppError{
		Code:    CodePersistence,
		Status:  http.StatusInternalServerError,
		Message: fmt.Sprintf("failed to %s", op),
		Err:     err,
	}
}

// As unwraps err into an *AppError if possible.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is reports whether err carries the given error code.
func Is(err error, code string) bool {
	if appErr, ok := As(err); ok {
		return appErr.Code == code
	}
	return false
}
