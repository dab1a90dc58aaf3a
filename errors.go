package lintbridge

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of an error
type ErrorType string

const (
	// ErrorTypeConfig represents configuration-related errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeEngine represents engine resolution/construction errors
	ErrorTypeEngine ErrorType = "engine"
	// ErrorTypeLint represents failures inside a lint execution
	ErrorTypeLint ErrorType = "lint"
	// ErrorTypeCache represents cache storage errors
	ErrorTypeCache ErrorType = "cache"
	// ErrorTypeHost represents missing host capabilities
	ErrorTypeHost ErrorType = "host"
)

// AppError is a custom error type that provides context about the error
type AppError struct {
	Type    ErrorType // The category of the error
	Message string    // A human-readable error message
	Err     error     // The underlying error, if any
	File    string    // The file related to the error, if applicable
	Details string    // Additional details about the error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithFile adds file information to the error
func (e *AppError) WithFile(file string) *AppError {
	e.File = file
	return e
}

// WithDetails adds additional details to the error
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// NewConfigError creates a new configuration error
func NewConfigError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeConfig, Message: message, Err: err}
}

// NewEngineError creates a new engine construction error
func NewEngineError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeEngine, Message: message, Err: err}
}

// NewLintError creates a new lint execution error
func NewLintError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeLint, Message: message, Err: err}
}

// NewCacheError creates a new cache storage error
func NewCacheError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeCache, Message: message, Err: err}
}

// NewHostError creates a new host capability error
func NewHostError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeHost, Message: message, Err: err}
}

// ErrorInfo is the exported view of an AppError used by hosts that want to
// log by category without depending on the concrete type.
type ErrorInfo struct {
	Type    ErrorType
	File    string
	Details string
}

// GetErrorInfo extracts category information from an error chain.
func GetErrorInfo(err error) (ErrorInfo, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return ErrorInfo{Type: appErr.Type, File: appErr.File, Details: appErr.Details}, true
	}
	return ErrorInfo{}, false
}

// ESLintError is the uniform reportable failure value handed to the host.
// The message is pre-formatted (it already includes any formatter output),
// so the host's generic error display needs no special-casing by kind.
type ESLintError struct {
	Message string
}

// Error implements the error interface
func (e *ESLintError) Error() string {
	return e.Message
}

// NewESLintError creates a reportable error from a pre-formatted message.
func NewESLintError(message string) *ESLintError {
	return &ESLintError{Message: message}
}
