package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorizing errors
const (
	ErrConfig    = "CONFIG"
	ErrNetwork   = "NETWORK"   // request could not be issued or completed
	ErrTransport = "TRANSPORT" // backend answered with a non-2xx status
	ErrDecode    = "DECODE"    // response body did not match the expected shape
)

// Error represents a structured error with code, message, suggestion, and optional cause.
// Fetch failures also carry the backend resource name and, for transport
// errors, the HTTP status. The printed form is:
//
//	✗ <What failed>
//
//	  <Why it failed - technical details>
//
//	  <How to fix it - actionable steps>
type Error struct {
	Code       string
	Message    string
	Suggestion string
	Cause      error

	Resource string // backend resource, e.g. "devices" or "drought summary"
	Status   int    // HTTP status for ErrTransport, 0 otherwise
}

// New creates a new structured error with the given code, message, and suggestion.
func New(code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

// WrapWithCode wraps an existing error with a specific code, message, and suggestion.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
		Cause:      err,
	}
}

// Network reports that a request for resource could not be dispatched or
// did not complete.
func Network(resource string, cause error) *Error {
	return &Error{
		Code:       ErrNetwork,
		Message:    fmt.Sprintf("Failed to load %s", resource),
		Suggestion: "Check that the API is reachable and api.base_url is correct",
		Cause:      cause,
		Resource:   resource,
	}
}

// Transport reports a non-success HTTP status for resource. detail is the
// backend's own message, if it sent one.
func Transport(resource string, status int, detail string) *Error {
	e := &Error{
		Code:     ErrTransport,
		Message:  fmt.Sprintf("Failed to load %s: %d", resource, status),
		Resource: resource,
		Status:   status,
	}
	if detail != "" {
		e.Cause = errors.New(detail)
	}
	switch {
	case status == 401 || status == 403:
		e.Suggestion = "Check api.token (or PVZ_API_TOKEN)"
	case status == 404:
		e.Suggestion = "Check env and tenant, or whether the device still exists"
	case status >= 500:
		e.Suggestion = "The backend is failing; the next refresh will retry"
	}
	return e
}

// Decode reports a response body for resource that could not be parsed.
func Decode(resource string, cause error) *Error {
	return &Error{
		Code:     ErrDecode,
		Message:  fmt.Sprintf("Unexpected %s response", resource),
		Cause:    cause,
		Resource: resource,
	}
}

// Error implements the error interface with the three-part layout described on Error.
func (e *Error) Error() string {
	var b strings.Builder

	// First line: failure symbol + main message
	b.WriteString(fmt.Sprintf("✗ %s\n", e.Message))

	// Include cause if present (why it failed)
	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Cause.Error()))
	}

	// Include suggestion if present (how to fix)
	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Suggestion))
	}

	return b.String()
}

// Short returns a single-line form for status bars.
func (e *Error) Short() string {
	if e.Cause != nil && e.Code != ErrTransport {
		return fmt.Sprintf("%s: %s", e.Message, e.Cause.Error())
	}
	return e.Message
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode checks if an error is a structured Error with the given code.
func IsCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var pvzErr *Error
	if errors.As(err, &pvzErr) {
		return pvzErr.Code == code
	}
	return false
}

// StatusOf returns the HTTP status carried by a transport error, or 0.
func StatusOf(err error) int {
	var pvzErr *Error
	if errors.As(err, &pvzErr) && pvzErr.Code == ErrTransport {
		return pvzErr.Status
	}
	return 0
}

// Summary returns a one-line description of err for compact display.
func Summary(err error) string {
	if err == nil {
		return ""
	}
	var pvzErr *Error
	if errors.As(err, &pvzErr) {
		return pvzErr.Short()
	}
	return strings.TrimSpace(err.Error())
}
