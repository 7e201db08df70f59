// Package errors provides the structured error type used throughout the
// PeopleSuite platform. Every failure that crosses a package boundary is an
// *Error carrying a stable [Code], a human-readable message, and an optional
// cause — never a bare string with structured data joined into it.
//
// The code's category decides the HTTP status a failure maps to, so the
// authentication and permission gates can translate any *Error into a
// response without inspecting message text.
package errors

import (
	"fmt"
	"net/http"
)

// Error is a structured error with a code, message, and optional cause.
// It implements the standard error interface.
//
// Error values are immutable after creation and safe to share. Use
// WithDetail to derive a copy with extra diagnostic context attached.
type Error struct {
	// Code is the machine-readable error code (e.g., "AUTH_003").
	Code Code

	// Message is the human-readable error message. It may be shown to
	// clients, so it must not contain secrets, tokens, or internal
	// addresses.
	Message string

	// Cause is the underlying error, if any. Access it through Unwrap
	// for errors.Is / errors.As chain inspection.
	Cause error

	// Details holds additional structured context for logs and
	// diagnostics (request path, target service, …). Details are never
	// serialized into client responses.
	Details map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, supporting errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the HTTP status code for this error based on its
// code category. Unknown categories map to 500.
func (e *Error) HTTPStatus() int {
	switch e.Code.Category() {
	case "VAL":
		return http.StatusBadRequest
	case "AUTH":
		return http.StatusUnauthorized
	case "AUTHZ":
		return http.StatusForbidden
	case "NF":
		return http.StatusNotFound
	case "UNAVAIL":
		return http.StatusServiceUnavailable
	case "TIMEOUT":
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// WithDetail returns a copy of the error with a single detail key-value
// pair added. The receiver is not modified.
func (e *Error) WithDetail(key string, value any) *Error {
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Cause:   e.Cause,
		Details: details,
	}
}

// Format implements fmt.Formatter. %v prints the standard message;
// %+v additionally prints details and the full cause chain.
func (e *Error) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			fmt.Fprintf(s, "Error{Code: %q, Message: %q", e.Code, e.Message)
			if len(e.Details) > 0 {
				fmt.Fprintf(s, ", Details: %v", e.Details)
			}
			if e.Cause != nil {
				fmt.Fprintf(s, ", Cause: %+v", e.Cause)
			}
			fmt.Fprint(s, "}")
			return
		}
		fallthrough
	case 's':
		fmt.Fprint(s, e.Error())
	case 'q':
		fmt.Fprintf(s, "%q", e.Error())
	}
}
