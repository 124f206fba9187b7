package errors

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// Domain errors
	ErrorTypeValidation ErrorType = "VALIDATION"
	ErrorTypeNotFound   ErrorType = "NOT_FOUND"
	ErrorTypeConflict   ErrorType = "CONFLICT"

	// Application errors
	ErrorTypeInternal    ErrorType = "INTERNAL"
	ErrorTypeTimeout     ErrorType = "TIMEOUT"
	ErrorTypeRateLimit   ErrorType = "RATE_LIMIT"
	ErrorTypeUnavailable ErrorType = "UNAVAILABLE"

	// Collaborator errors
	ErrorTypeExternal ErrorType = "EXTERNAL"
	// ErrorTypeBlocked marks a refusal the user can resolve, such as a music
	// prompt rejected by the collaborator's content policy.
	ErrorTypeBlocked ErrorType = "BLOCKED"
)

var statusByType = map[ErrorType]int{
	ErrorTypeValidation:  http.StatusBadRequest,
	ErrorTypeNotFound:    http.StatusNotFound,
	ErrorTypeConflict:    http.StatusConflict,
	ErrorTypeBlocked:     http.StatusConflict,
	ErrorTypeInternal:    http.StatusInternalServerError,
	ErrorTypeTimeout:     http.StatusGatewayTimeout,
	ErrorTypeRateLimit:   http.StatusTooManyRequests,
	ErrorTypeUnavailable: http.StatusServiceUnavailable,
	ErrorTypeExternal:    http.StatusBadGateway,
}

// AppError is the error shape every layer returns. The REST and MCP surfaces
// render it from Type, Message and Details.
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	StackTrace string                 `json:"-"`
	HTTPStatus int                    `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return string(e.Type) + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a single detail entry
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithCause wraps an underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

// New creates an AppError of the given type with its default HTTP status.
func New(t ErrorType, message string) *AppError {
	status, ok := statusByType[t]
	if !ok {
		status = http.StatusInternalServerError
	}
	return &AppError{
		Type:       t,
		Message:    message,
		HTTPStatus: status,
		StackTrace: callers(),
	}
}

// callers records the stack from the caller of New upward.
func callers() string {
	var pcs [24]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var b strings.Builder
	for frame, more := frames.Next(); ; frame, more = frames.Next() {
		fmt.Fprintf(&b, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		if !more {
			break
		}
	}
	return b.String()
}

func NewValidationError(message string) *AppError {
	return New(ErrorTypeValidation, message)
}

func NewValidationErrorf(format string, args ...interface{}) *AppError {
	return New(ErrorTypeValidation, fmt.Sprintf(format, args...))
}

// NewNotFoundError reports a missing resource, e.g. "session jam".
func NewNotFoundError(resource string) *AppError {
	return New(ErrorTypeNotFound, resource+" not found")
}

func NewConflictError(message string) *AppError {
	return New(ErrorTypeConflict, message)
}

func NewInternalError(message string) *AppError {
	return New(ErrorTypeInternal, message)
}

func NewTimeoutError(operation string) *AppError {
	return New(ErrorTypeTimeout, fmt.Sprintf("operation '%s' timed out", operation))
}

func NewRateLimitError(limit int, window string) *AppError {
	return New(ErrorTypeRateLimit, fmt.Sprintf("rate limit exceeded: %d requests per %s", limit, window))
}

// NewUnavailableError reports a collaborator that is unconfigured or whose
// breaker is open.
func NewUnavailableError(service string) *AppError {
	return New(ErrorTypeUnavailable, fmt.Sprintf("service '%s' is unavailable", service))
}

func NewExternalError(service string, err error) *AppError {
	return New(ErrorTypeExternal, fmt.Sprintf("external service '%s' error", service)).WithCause(err)
}

func NewBlockedError(message string) *AppError {
	return New(ErrorTypeBlocked, message)
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	return GetAppError(err) != nil
}

// GetAppError extracts AppError from an error chain
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == errType
}

func IsNotFound(err error) bool   { return IsType(err, ErrorTypeNotFound) }
func IsValidation(err error) bool { return IsType(err, ErrorTypeValidation) }
func IsConflict(err error) bool   { return IsType(err, ErrorTypeConflict) }

// IsExternal reports whether the failure happened in a collaborator call.
func IsExternal(err error) bool {
	switch typeOf(err) {
	case ErrorTypeExternal, ErrorTypeUnavailable, ErrorTypeTimeout:
		return true
	}
	return false
}

func typeOf(err error) ErrorType {
	if appErr := GetAppError(err); appErr != nil {
		return appErr.Type
	}
	return ""
}

// Wrap prefixes an AppError's message, or turns any other error into an
// internal one.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if appErr := GetAppError(err); appErr != nil {
		appErr.Message = message + ": " + appErr.Message
		return appErr
	}
	return NewInternalError(message).WithCause(err)
}
