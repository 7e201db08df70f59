package errors

import (
	"errors"
	"fmt"
)

// New creates a new Error with the specified code and message.
//
// Example:
//
//	err := errors.New(errors.CodeCredentialMissing, "no authorization header")
func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new Error with the specified code and formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with a code and message; the wrapped error
// becomes the Cause. Returns nil if err is nil.
//
// Example:
//
//	record, err := resolver.ResolveByEmail(ctx, email, token)
//	if err != nil {
//	    return errors.Wrap(err, errors.CodeResolverUnavailable, "identity lookup failed")
//	}
func Wrap(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an existing error with a formatted message.
// Returns nil if err is nil.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   err,
	}
}

// Validation creates a new validation error with [CodeValidation].
func Validation(message string) *Error {
	return New(CodeValidation, message)
}

// Validationf creates a new validation error with a formatted message.
func Validationf(format string, args ...any) *Error {
	return Newf(CodeValidation, format, args...)
}

// Unauthorized creates a new authentication error with [CodeAuthentication].
// Use this when the caller's credential is missing or cannot be verified.
func Unauthorized(message string) *Error {
	return New(CodeAuthentication, message)
}

// Forbidden creates a new authorization error with [CodeAuthorization].
// Use this when the authenticated caller is denied access.
func Forbidden(message string) *Error {
	return New(CodeAuthorization, message)
}

// NotFound creates a new not found error with [CodeNotFound].
func NotFound(message string) *Error {
	return New(CodeNotFound, message)
}

// Internal creates a new internal error with [CodeInternal].
// Use this for unexpected failures whose details must not reach clients.
func Internal(message string) *Error {
	return New(CodeInternal, message)
}

// Unavailable creates a new service unavailable error with [CodeUnavailable].
func Unavailable(message string) *Error {
	return New(CodeUnavailable, message)
}

// Timeout creates a new timeout error with [CodeTimeout].
func Timeout(message string) *Error {
	return New(CodeTimeout, message)
}

// FromError converts any error to an *Error. If err already is (or wraps)
// an *Error it is returned unchanged; otherwise it is wrapped as an
// internal error. Returns nil for a nil err.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return e
	}

	return Wrap(err, CodeInternal, "an unexpected error occurred")
}
