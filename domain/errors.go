package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrCodeInvalidState     ErrorCode = "INVALID_STATE"
	ErrCodeQuotaExceeded    ErrorCode = "QUOTA_EXCEEDED"
	ErrCodeMalformedInput   ErrorCode = "MALFORMED_INPUT"
	ErrCodeStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
	ErrCodeInternal         ErrorCode = "INTERNAL"
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

// Is matches on code and message so wrapped copies of a sentinel compare equal.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
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

// Unavailable classifies a storage failure. Errors that already carry a
// domain classification are returned unchanged.
func Unavailable(err error) error {
	if err == nil {
		return nil
	}
	var dErr *Error
	if errors.As(err, &dErr) {
		return err
	}
	return WrapError(ErrCodeStoreUnavailable, "store unavailable", err)
}

// Common domain errors.
var (
	ErrCustomerNotFound = NewError(ErrCodeNotFound, "Customer not found")
	ErrQuoteNotFound    = NewError(ErrCodeNotFound, "Quote not found")
	ErrPolicyNotFound   = NewError(ErrCodeNotFound, "Policy not found")
	ErrClaimNotFound    = NewError(ErrCodeNotFound, "Claim not found")

	ErrQuoteNotCalculated = NewError(ErrCodeInvalidState, "Quote must be calculated before it can be accepted")
	ErrQuoteAccepted      = NewError(ErrCodeInvalidState, "Quote already accepted")
	ErrPolicyNotRenewable = NewError(ErrCodeInvalidState, "Policy is not yet renewable")
	ErrPolicyInactive     = NewError(ErrCodeInvalidState, "Policy is not active")

	ErrQuotaExceeded = NewError(ErrCodeQuotaExceeded, "Message quota exceeded")

	ErrInvalidJSON      = NewError(ErrCodeMalformedInput, "Invalid JSON body")
	ErrPolicyIDRequired = NewError(ErrCodeMalformedInput, "policyId is required")
	ErrProductRequired  = NewError(ErrCodeMalformedInput, "productId is required")
	ErrEmptyMessage     = NewError(ErrCodeMalformedInput, "Message payload is required")

	ErrStoreUnavailable = NewError(ErrCodeStoreUnavailable, "store unavailable")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// CodeOf returns the classification of err, INTERNAL for anything unclassified.
func CodeOf(err error) ErrorCode {
	var dErr *Error
	if errors.As(err, &dErr) && dErr != nil {
		return dErr.Code
	}
	return ErrCodeInternal
}

// MessageOf returns the client-facing message of err without wrapped causes.
func MessageOf(err error) string {
	var dErr *Error
	if errors.As(err, &dErr) && dErr != nil {
		return dErr.Message
	}
	return "internal error"
}
