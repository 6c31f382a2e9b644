package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the closed set of failure categories the service can report.
// Every error that reaches the response boundary is classified into
// exactly one of these.
type Kind int

const (
	KindUnknown Kind = iota
	KindAuthentication
	KindValidation
	KindNotFound
	KindRateLimit
	KindExternalAPI
	KindConfiguration
)

// Code returns the stable machine-readable code for the kind
func (k Kind) Code() string {
	switch k {
	case KindAuthentication:
		return "AUTHENTICATION_ERROR"
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindNotFound:
		return "NOT_FOUND"
	case KindRateLimit:
		return "RATE_LIMIT_EXCEEDED"
	case KindExternalAPI:
		return "EXTERNAL_API_ERROR"
	case KindConfiguration:
		return "CONFIGURATION_ERROR"
	default:
		return "INTERNAL_ERROR"
	}
}

// StatusCode returns the HTTP status the kind maps to
func (k Kind) StatusCode() int {
	switch k {
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimit:
		return http.StatusTooManyRequests
	case KindExternalAPI:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (k Kind) String() string { return k.Code() }

// Error is the single error type carried through the pipeline. Failure
// sites construct one with the right Kind; the response boundary turns it
// into a client payload without ever inspecting concrete upstream errors.
type Error struct {
	Kind       Kind
	Message    string
	Details    any   // field-level detail on validation failures
	RetryAfter int   // seconds, set on rate-limit denials
	cause      error // wrapped upstream error, server-side only
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind.Code(), e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind.Code(), e.Message)
}

// Unwrap exposes the cause for errors.Is/errors.As chains
func (e *Error) Unwrap() error { return e.cause }

// Cause returns the wrapped upstream error, if any. Used for server-side
// logging; never serialized to clients in production mode.
func (e *Error) Cause() error { return e.cause }

// New creates a classified error with no cause
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates a classified error around an upstream cause
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// Authentication reports a missing or invalid credential. The message is
// deliberately generic so callers cannot probe which check failed.
func Authentication() *Error {
	return &Error{Kind: KindAuthentication, Message: "authentication required"}
}

// FieldError describes one failed validation rule
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Validation reports one or more rejected request fields
func Validation(fields []FieldError) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: "request validation failed",
		Details: fields,
	}
}

// NotFound reports a commit or repository the source host does not know
func NotFound(what string) *Error {
	return &Error{Kind: KindNotFound, Message: what + " not found"}
}

// RateLimited reports a denied rate-limit decision
func RateLimited(retryAfter int) *Error {
	return &Error{
		Kind:       KindRateLimit,
		Message:    "rate limit exceeded",
		RetryAfter: retryAfter,
	}
}

// External reports a failure in one of the upstream services. The api and
// endpoint identify the collaborator for server-side logs; the client only
// ever sees the generic message.
func External(api, endpoint string, cause error) *Error {
	return &Error{
		Kind:    KindExternalAPI,
		Message: fmt.Sprintf("%s request failed", api),
		Details: map[string]string{"api": api, "endpoint": endpoint},
		cause:   cause,
	}
}

// Configuration reports required config missing on a request path
func Configuration(what string) *Error {
	return &Error{
		Kind:    KindConfiguration,
		Message: fmt.Sprintf("service misconfigured: %s", what),
	}
}

// Classify maps any error to a taxonomy Error. Known kinds pass through,
// including when wrapped with fmt.Errorf("%w"); anything else becomes an
// unknown internal error with a generic message.
func Classify(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return &Error{
		Kind:    KindUnknown,
		Message: "internal server error",
		cause:   err,
	}
}
