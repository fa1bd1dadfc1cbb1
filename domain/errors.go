package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodeTransition   ErrorCode = "INVALID_TRANSITION"
	ErrCodeDeadline     ErrorCode = "DEADLINE_PASSED"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeBusy         ErrorCode = "BUSY"
	ErrCodeDelivery     ErrorCode = "DELIVERY_FAILED"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal     ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain errors.
var (
	ErrBookingNotFound = NewError(ErrCodeNotFound, "booking not found")
	ErrStylistNotFound = NewError(ErrCodeNotFound, "stylist not found")
	ErrServiceNotFound = NewError(ErrCodeNotFound, "service not found")
	ErrVersionConflict = NewError(ErrCodeConflict, "booking version conflict")
	ErrBusy            = NewError(ErrCodeBusy, "booking is busy, retry later")
	ErrDeliveryFailed  = NewError(ErrCodeDelivery, "notification delivery failed")
	ErrUnauthorized    = NewError(ErrCodeUnauthorized, "unauthorized")
	ErrInvalidPayload  = NewError(ErrCodeInvalid, "invalid payload")
)

// NewInvalidTransition reports a command that is not legal from the current status.
func NewInvalidTransition(command string, status BookingStatus) *Error {
	return NewError(ErrCodeTransition, fmt.Sprintf("cannot %s a booking in status %s", command, status))
}

// NewDeadlinePassed reports a guard that failed on time.
func NewDeadlinePassed(message string) *Error {
	return NewError(ErrCodeDeadline, message)
}

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}
