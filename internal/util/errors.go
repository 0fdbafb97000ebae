// Package util provides utility functions and types for the REST server.
//
// # Error Conventions
//
// This project follows a standardized error pattern across all packages:
//
//   - Sentinel errors (errors.New) for well-known, stable conditions
//     that callers check with errors.Is(). Example: ErrNotFound.
//   - Structured error types for context-rich errors that carry
//     additional fields (e.g., DecodingError, NegotiationError). Each type
//     implements Error(), Unwrap() (if wrapping), and Is().
//   - fmt.Errorf with %w for ad-hoc wrapping that adds context to an
//     existing error without introducing a new type.
//
// All custom error types must implement:
//
//	Error() string           – human-readable message
//	Unwrap() error           – if the type wraps another error
//	Is(target error) bool    – for errors.Is() compatibility
package util

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Common sentinel errors.
var (
	ErrNotFound             = errors.New("not found")
	ErrBadRequest           = errors.New("bad request")
	ErrMethodNotAllowed     = errors.New("method not allowed")
	ErrNotAcceptable        = errors.New("not acceptable")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrConfigInvalid        = errors.New("invalid configuration")
	ErrRateLimited          = errors.New("rate limit exceeded")
	ErrTimeout              = errors.New("request timed out")
)

// DecodingError reports a request target that could not be percent-decoded
// into valid UTF-8.
type DecodingError struct {
	Input string
	Cause error
}

// Error implements the error interface.
func (e *DecodingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed request encoding %q: %v", e.Input, e.Cause)
	}
	return fmt.Sprintf("malformed request encoding %q", e.Input)
}

// Unwrap returns the underlying error.
func (e *DecodingError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *DecodingError) Is(target error) bool {
	if target == ErrBadRequest {
		return true
	}
	_, ok := target.(*DecodingError)
	return ok || errors.Is(e.Cause, target)
}

// NewDecodingError creates a new DecodingError.
func NewDecodingError(input string, cause error) *DecodingError {
	return &DecodingError{Input: input, Cause: cause}
}

// RouteNotFoundError represents a route not found error.
type RouteNotFoundError struct {
	Path   string
	Method string
}

// Error implements the error interface.
func (e *RouteNotFoundError) Error() string {
	return fmt.Sprintf("no route found for %s %s", e.Method, e.Path)
}

// Is checks if the error matches the target.
func (e *RouteNotFoundError) Is(target error) bool {
	if target == ErrNotFound {
		return true
	}
	_, ok := target.(*RouteNotFoundError)
	return ok
}

// NewRouteNotFoundError creates a new RouteNotFoundError.
func NewRouteNotFoundError(method, path string) *RouteNotFoundError {
	return &RouteNotFoundError{Path: path, Method: method}
}

// MethodNotAllowedError is returned when a path is known but not for the
// requested verb. Allowed lists the verbs that would have matched.
type MethodNotAllowedError struct {
	Path    string
	Method  string
	Allowed []string
}

// Error implements the error interface.
func (e *MethodNotAllowedError) Error() string {
	return fmt.Sprintf("method %s not allowed for %s (allowed: %s)",
		e.Method, e.Path, strings.Join(e.Allowed, ", "))
}

// Is checks if the error matches the target.
func (e *MethodNotAllowedError) Is(target error) bool {
	if target == ErrMethodNotAllowed {
		return true
	}
	_, ok := target.(*MethodNotAllowedError)
	return ok
}

// NewMethodNotAllowedError creates a new MethodNotAllowedError.
func NewMethodNotAllowedError(method, path string, allowed []string) *MethodNotAllowedError {
	return &MethodNotAllowedError{Path: path, Method: method, Allowed: allowed}
}

// ConfigurationError represents an invalid registry or service description
// operation, such as mutating a started router or building a URI without a
// required argument.
type ConfigurationError struct {
	Field   string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	msg := "config error: " + e.Message
	if e.Field != "" {
		msg = fmt.Sprintf("config error at %s: %s", e.Field, e.Message)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *ConfigurationError) Is(target error) bool {
	if target == ErrConfigInvalid {
		return true
	}
	_, ok := target.(*ConfigurationError)
	return ok || errors.Is(e.Cause, target)
}

// NewConfigurationError creates a new ConfigurationError.
func NewConfigurationError(field, message string) *ConfigurationError {
	return &ConfigurationError{Field: field, Message: message}
}

// NewConfigurationErrorWithCause creates a new ConfigurationError with a cause.
func NewConfigurationErrorWithCause(field, message string, cause error) *ConfigurationError {
	return &ConfigurationError{Field: field, Message: message, Cause: cause}
}

// NegotiationKind distinguishes the two content negotiation failures.
type NegotiationKind int

const (
	// NotAcceptable means no response representation satisfies Accept.
	NotAcceptable NegotiationKind = iota
	// UnsupportedMediaType means the request body type cannot be decoded.
	UnsupportedMediaType
)

// NegotiationError reports a failed content negotiation.
type NegotiationError struct {
	Kind      NegotiationKind
	Requested string
	Entity    string
	Supported []string
}

// Error implements the error interface.
func (e *NegotiationError) Error() string {
	switch e.Kind {
	case UnsupportedMediaType:
		return fmt.Sprintf("media type %q is not supported for %s (supported: %s)",
			e.Requested, e.Entity, strings.Join(e.Supported, ", "))
	default:
		return fmt.Sprintf("none of %q is acceptable for %s (available: %s)",
			e.Requested, e.Entity, strings.Join(e.Supported, ", "))
	}
}

// Is checks if the error matches the target.
func (e *NegotiationError) Is(target error) bool {
	switch target {
	case ErrNotAcceptable:
		return e.Kind == NotAcceptable
	case ErrUnsupportedMediaType:
		return e.Kind == UnsupportedMediaType
	}
	_, ok := target.(*NegotiationError)
	return ok
}

// NewNotAcceptableError creates a NegotiationError of kind NotAcceptable.
func NewNotAcceptableError(requested, entity string, supported []string) *NegotiationError {
	return &NegotiationError{Kind: NotAcceptable, Requested: requested, Entity: entity, Supported: supported}
}

// NewUnsupportedMediaTypeError creates a NegotiationError of kind UnsupportedMediaType.
func NewUnsupportedMediaTypeError(requested, entity string, supported []string) *NegotiationError {
	return &NegotiationError{
		Kind: UnsupportedMediaType, Requested: requested, Entity: entity, Supported: supported,
	}
}

// ArgumentError reports a request argument that could not be converted to
// its declared type.
type ArgumentError struct {
	Name  string
	Value string
	Type  string
	Cause error
}

// Error implements the error interface.
func (e *ArgumentError) Error() string {
	return fmt.Sprintf("argument %s: cannot convert %q to %s", e.Name, e.Value, e.Type)
}

// Unwrap returns the underlying error.
func (e *ArgumentError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *ArgumentError) Is(target error) bool {
	if target == ErrBadRequest {
		return true
	}
	_, ok := target.(*ArgumentError)
	return ok
}

// NewArgumentError creates a new ArgumentError.
func NewArgumentError(name, value, typeName string, cause error) *ArgumentError {
	return &ArgumentError{Name: name, Value: value, Type: typeName, Cause: cause}
}

// WrapError wraps an error with additional context.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// StatusCode maps an error to the HTTP status code that should be reported
// to the client. Unknown errors map to 500.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed
	case errors.Is(err, ErrNotAcceptable):
		return http.StatusNotAcceptable
	case errors.Is(err, ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// IsClientError returns true if the error is a client error (4xx).
func IsClientError(err error) bool {
	if err == nil {
		return false
	}
	code := StatusCode(err)
	return code >= http.StatusBadRequest && code < http.StatusInternalServerError
}
