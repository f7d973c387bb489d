package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an AppError.
type Code string

const (
	ErrNotFound       Code = "NOT_FOUND"
	ErrForbidden      Code = "FORBIDDEN" // authenticated but not allowed
	ErrUnauthorized   Code = "UNAUTHORIZED"
	ErrInvalidInput   Code = "INVALID_INPUT"
	ErrConflict       Code = "CONFLICT"
	ErrDeadlinePassed Code = "DEADLINE_PASSED"
	ErrUnavailable    Code = "UNAVAILABLE"
	ErrRateLimited    Code = "RATE_LIMITED"
	ErrInternal       Code = "INTERNAL"
)

type AppError struct {
	Code    Code
	Message string
	Origin  error // Original error that caused this error, if any
}

func (e *AppError) Error() string {
	if e.Origin != nil {
		return e.Message + ": " + e.Origin.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Origin
}

func NewAppError(code Code, message string, origin error) *AppError {
	return &AppError{Code: code, Message: message, Origin: origin}
}

func NotFound(format string, args ...any) *AppError {
	return &AppError{Code: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...any) *AppError {
	return &AppError{Code: ErrForbidden, Message: fmt.Sprintf(format, args...)}
}

func InvalidInput(format string, args ...any) *AppError {
	return &AppError{Code: ErrInvalidInput, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *AppError {
	return &AppError{Code: ErrConflict, Message: fmt.Sprintf(format, args...)}
}

func DeadlinePassed(format string, args ...any) *AppError {
	return &AppError{Code: ErrDeadlinePassed, Message: fmt.Sprintf(format, args...)}
}

func RateLimited(format string, args ...any) *AppError {
	return &AppError{Code: ErrRateLimited, Message: fmt.Sprintf(format, args...)}
}

// Unavailable wraps a store or transport failure. The caller reports it and does not retry.
func Unavailable(message string, origin error) *AppError {
	return &AppError{Code: ErrUnavailable, Message: message, Origin: origin}
}

// CodeOf extracts the code of an AppError anywhere in err's chain, ErrInternal otherwise.
func CodeOf(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal
}

// IsCode reports whether err carries code.
func IsCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// HTTPStatus converts an error code to an HTTP status code.
func HTTPStatus(code Code) int {
	switch code {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrInvalidInput:
		return http.StatusBadRequest
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	case ErrConflict:
		return http.StatusConflict
	case ErrDeadlinePassed:
		return http.StatusUnprocessableEntity
	case ErrUnavailable:
		return http.StatusServiceUnavailable
	case ErrRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
