// Package apperror provides structured, coded errors for the application.
package apperror

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// AppError implements the error interface and provides structured error handling
type AppError struct {
	Code      Code      `json:"code"`
	Message   string    `json:"message"`
	Context   string    `json:"context,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	cause     error     // unexported to maintain encapsulation
	stack     []uintptr // stack trace
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Context)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *AppError) Unwrap() error {
	return e.cause
}

// Is implements errors.Is interface for error comparison
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// ToLog serializes the error for logging with stack trace
func (e *AppError) ToLog() map[string]any {
	log := map[string]any{
		"code":      e.Code,
		"message":   e.Message,
		"timestamp": e.Timestamp.Format(time.RFC3339),
	}

	if e.Context != "" {
		log["context"] = e.Context
	}

	if e.cause != nil {
		log["cause"] = e.cause.Error()
	}

	if len(e.stack) > 0 {
		log["stack"] = e.formatStack()
	}

	return log
}

// formatStack formats the stack trace
func (e *AppError) formatStack() string {
	var sb strings.Builder
	frames := runtime.CallersFrames(e.stack)
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			sb.WriteString(fmt.Sprintf("\n\t%s:%d %s", frame.File, frame.Line, frame.Function))
		}
		if !more {
			break
		}
	}
	return sb.String()
}

// captureStack captures the current stack trace
func captureStack() []uintptr {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	return pcs[:n]
}

// New creates a new AppError with the given code and options
func New(code Code, opts ...Option) *AppError {
	err := &AppError{
		Code:      code,
		Message:   messages[code],
		Timestamp: time.Now(),
		stack:     captureStack(),
	}

	// Apply options
	for _, opt := range opts {
		opt(err)
	}

	// If message wasn't set by options and isn't in messages map, use code as message
	if err.Message == "" {
		err.Message = string(code)
	}

	return err
}

// Option is a functional option for AppError
type Option func(*AppError)

// WithMessage sets a custom message
func WithMessage(message string) Option {
	return func(e *AppError) {
		e.Message = message
	}
}

// WithContext adds context information
func WithContext(context string) Option {
	return func(e *AppError) {
		e.Context = context
	}
}

// WithCause wraps an underlying error
func WithCause(cause error) Option {
	return func(e *AppError) {
		e.cause = cause
	}
}

// Factory methods for common error types

// Validation creates a validation error
func Validation(code Code, context string) *AppError {
	return New(code, WithContext(context))
}

// NotFound creates a not found error
func NotFound(code Code, context string) *AppError {
	return New(code, WithContext(context))
}

// Internal creates an internal error
func Internal(code Code, context string, cause error) *AppError {
	return New(code, WithContext(context), WithCause(cause))
}

// External creates an external service error
func External(code Code, context string, cause error) *AppError {
	return New(code, WithContext(context), WithCause(cause))
}

// Wrap wraps a standard error into AppError
func Wrap(err error, code Code, context string) *AppError {
	if err == nil {
		return nil
	}

	// If it's already an AppError, return it
	var appErr *AppError
	if errors.As(err, &appErr) {
		if context != "" && appErr.Context == "" {
			appErr.Context = context
		}
		return appErr
	}

	// Create new AppError wrapping the original
	return Internal(code, context, err)
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// IsCode checks whether err carries the given code
func IsCode(err error, code Code) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// GetCode extracts the error code from an error
func GetCode(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknownError
}
