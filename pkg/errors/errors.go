// Package errors provides a structured error system for the impact engine with
// error codes, categories, and context.
package errors

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents a structured error code for impact engine operations.
type ErrorCode string

// Error code constants organized by category.
const (
	// Configuration errors
	ErrCodeConfigValidation ErrorCode = "CONFIG_VALIDATION"
	ErrCodeConfigLoad       ErrorCode = "CONFIG_LOAD"

	// Data source errors
	ErrCodeUnknownSourceType ErrorCode = "UNKNOWN_SOURCE_TYPE"
	ErrCodeCapabilityMissing ErrorCode = "CAPABILITY_MISSING"
	ErrCodeRetrievalFailed   ErrorCode = "RETRIEVAL_FAILED"

	// Connection errors
	ErrCodeConnectionFailed     ErrorCode = "CONNECTION_FAILED"
	ErrCodeGeneratorUnavailable ErrorCode = "GENERATOR_UNAVAILABLE"

	// Storage errors
	ErrCodeUnsupportedScheme ErrorCode = "UNSUPPORTED_SCHEME"
	ErrCodeDocumentNotFound  ErrorCode = "DOCUMENT_NOT_FOUND"
	ErrCodeDocumentDecode    ErrorCode = "DOCUMENT_DECODE"
	ErrCodeStorageRead       ErrorCode = "STORAGE_READ"
	ErrCodeStorageWrite      ErrorCode = "STORAGE_WRITE"

	// Input validation errors
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"

	// Internal errors
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// ErrorCategory represents the general category of an error.
type ErrorCategory string

const (
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryDataSource    ErrorCategory = "datasource"
	CategoryConnection    ErrorCategory = "connection"
	CategoryStorage       ErrorCategory = "storage"
	CategoryValidation    ErrorCategory = "validation"
	CategoryInternal      ErrorCategory = "internal"
)

// EngineError represents a structured error with context and metadata.
type EngineError struct {
	Code     ErrorCode              `json:"code"`
	Category ErrorCategory          `json:"category"`
	Message  string                 `json:"message"`
	Details  map[string]interface{} `json:"details,omitempty"`

	Context   map[string]string `json:"context,omitempty"`
	Cause     error             `json:"-"` // Not serialized to avoid circular refs
	Timestamp time.Time         `json:"timestamp"`

	Component string `json:"component,omitempty"`
	Operation string `json:"operation,omitempty"`
	RequestID string `json:"request_id,omitempty"`

	Retryable bool `json:"retryable"`
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.Component != "" {
		if e.Operation != "" {
			return fmt.Sprintf("[%s:%s] %s: %s", e.Component, e.Operation, e.Code, e.Message)
		}
		return fmt.Sprintf("[%s] %s: %s", e.Component, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for error wrapping compatibility.
func (e *EngineError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target error (for errors.Is compatibility).
func (e *EngineError) Is(target error) bool {
	if engineErr, ok := target.(*EngineError); ok {
		return e.Code == engineErr.Code
	}
	return false
}

// String returns a detailed string representation for logging.
func (e *EngineError) String() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("Code=%s", e.Code))
	parts = append(parts, fmt.Sprintf("Category=%s", e.Category))
	parts = append(parts, fmt.Sprintf("Message=%q", e.Message))

	if e.Component != "" {
		parts = append(parts, fmt.Sprintf("Component=%s", e.Component))
	}

	if e.Operation != "" {
		parts = append(parts, fmt.Sprintf("Operation=%s", e.Operation))
	}

	if e.RequestID != "" {
		parts = append(parts, fmt.Sprintf("RequestID=%s", e.RequestID))
	}

	if e.Retryable {
		parts = append(parts, "Retryable=true")
	}

	if len(e.Details) > 0 {
		details, _ := json.Marshal(e.Details)
		parts = append(parts, fmt.Sprintf("Details=%s", details))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("Cause=%q", e.Cause.Error()))
	}

	return fmt.Sprintf("EngineError{%s}", strings.Join(parts, ", "))
}

// NewError creates a new impact engine error with default values.
func NewError(code ErrorCode, message string) *EngineError {
	return &EngineError{
		Code:      code,
		Category:  GetCategory(code),
		Message:   message,
		Timestamp: time.Now(),
		Retryable: IsRetryableByDefault(code),
	}
}

// Newf creates a new error with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *EngineError {
	return NewError(code, fmt.Sprintf(format, args...))
}

// GetCategory determines the category based on the error code.
func GetCategory(code ErrorCode) ErrorCategory {
	switch code {
	case ErrCodeConfigValidation, ErrCodeConfigLoad:
		return CategoryConfiguration
	case ErrCodeUnknownSourceType, ErrCodeCapabilityMissing, ErrCodeRetrievalFailed:
		return CategoryDataSource
	case ErrCodeConnectionFailed, ErrCodeGeneratorUnavailable:
		return CategoryConnection
	case ErrCodeUnsupportedScheme, ErrCodeDocumentNotFound, ErrCodeDocumentDecode,
		ErrCodeStorageRead, ErrCodeStorageWrite:
		return CategoryStorage
	case ErrCodeInvalidArgument:
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// IsRetryableByDefault determines if an error is retryable by default.
// The core performs no retries itself; this is a hint for callers, which own
// retry policy.
func IsRetryableByDefault(code ErrorCode) bool {
	retryableCodes := map[ErrorCode]bool{
		ErrCodeConnectionFailed: true,
		ErrCodeStorageRead:      true,
		ErrCodeStorageWrite:     true,
		ErrCodeInternalError:    true,
	}
	return retryableCodes[code]
}

// HasCode reports whether err is an EngineError carrying the given code,
// unwrapping as needed.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		if engineErr, ok := err.(*EngineError); ok && engineErr.Code == code {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// WithContext adds contextual information to an error.
func (e *EngineError) WithContext(key, value string) *EngineError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// WithDetail adds detailed information to an error.
func (e *EngineError) WithDetail(key string, value interface{}) *EngineError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithComponent sets the component for an error.
func (e *EngineError) WithComponent(component string) *EngineError {
	e.Component = component
	return e
}

// WithOperation sets the operation for an error.
func (e *EngineError) WithOperation(operation string) *EngineError {
	e.Operation = operation
	return e
}

// WithRequestID sets the request identifier for an error.
func (e *EngineError) WithRequestID(id string) *EngineError {
	e.RequestID = id
	return e
}

// WithCause sets the underlying cause.
func (e *EngineError) WithCause(cause error) *EngineError {
	e.Cause = cause
	return e
}
