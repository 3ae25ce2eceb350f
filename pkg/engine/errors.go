// Package engine implements the migration analysis and validation core:
// resource graph extraction, relationship inference, structural template
// diffing, and change classification.
package engine

import (
	"errors"
	"fmt"
)

// ErrorClass represents the classification of an error for propagation policy.
type ErrorClass string

const (
	// ErrorClassInput indicates a missing or malformed input document.
	// Input errors are fatal and propagate to the caller.
	ErrorClassInput ErrorClass = "input"

	// ErrorClassSynthesis indicates a failure of the external re-synthesis
	// tool. Captured into ValidationResult, never propagated.
	ErrorClassSynthesis ErrorClass = "synthesis"

	// ErrorClassStructural indicates a non-fatal structural finding such
	// as a dependency cycle. Logged and recorded, extraction continues.
	ErrorClassStructural ErrorClass = "structural"

	// ErrorClassInternal indicates an unexpected internal failure.
	ErrorClassInternal ErrorClass = "internal"
)

// EngineError represents a classified error with context.
// nolint:revive // EngineError is intentionally named to distinguish from standard errors
type EngineError struct {
	// Class is the error classification for propagation policy.
	Class ErrorClass `json:"class"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Code is an optional error code for programmatic handling.
	Code string `json:"code,omitempty"`

	// Resource is the logical ID that caused the error, if applicable.
	Resource string `json:"resource,omitempty"`

	// Operation is the operation being performed when the error occurred.
	Operation string `json:"operation,omitempty"`

	// Err is the underlying error that caused this error.
	Err error `json:"-"`

	// Details contains additional context-specific information.
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.Resource != "" && e.Operation != "" {
		return fmt.Sprintf("[%s] %s (resource=%s, operation=%s): %s",
			e.Class, e.Message, e.Resource, e.Operation, e.unwrapMessage())
	}
	if e.Resource != "" {
		return fmt.Sprintf("[%s] %s (resource=%s): %s",
			e.Class, e.Message, e.Resource, e.unwrapMessage())
	}
	return fmt.Sprintf("[%s] %s: %s", e.Class, e.Message, e.unwrapMessage())
}

// Unwrap returns the underlying error for error chain inspection.
func (e *EngineError) Unwrap() error {
	return e.Err
}

// unwrapMessage returns the error message from the underlying error chain.
func (e *EngineError) unwrapMessage() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return ""
}

// Is implements error equality checking for errors.Is.
func (e *EngineError) Is(target error) bool {
	t, ok := target.(*EngineError)
	if !ok {
		return false
	}
	return e.Class == t.Class && e.Code == t.Code
}

// NewInputError creates a new input error.
func NewInputError(message string, err error) *EngineError {
	return &EngineError{
		Class:   ErrorClassInput,
		Message: message,
		Err:     err,
	}
}

// NewSynthesisError creates a new synthesis error.
func NewSynthesisError(message string, err error) *EngineError {
	return &EngineError{
		Class:   ErrorClassSynthesis,
		Message: message,
		Err:     err,
	}
}

// NewStructuralError creates a new structural error.
func NewStructuralError(message string, err error) *EngineError {
	return &EngineError{
		Class:   ErrorClassStructural,
		Message: message,
		Err:     err,
	}
}

// NewInternalError creates a new internal error.
func NewInternalError(message string, err error) *EngineError {
	return &EngineError{
		Class:   ErrorClassInternal,
		Message: message,
		Err:     err,
	}
}

// WithResource adds resource context to an error.
func (e *EngineError) WithResource(logicalID string) *EngineError {
	e.Resource = logicalID
	return e
}

// WithOperation adds operation context to an error.
func (e *EngineError) WithOperation(operation string) *EngineError {
	e.Operation = operation
	return e
}

// WithCode adds an error code to an error.
func (e *EngineError) WithCode(code string) *EngineError {
	e.Code = code
	return e
}

// WithDetail adds a detail field to the error context.
func (e *EngineError) WithDetail(key string, value interface{}) *EngineError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsInput returns true if the error is classified as an input error.
func IsInput(err error) bool {
	var e *EngineError
	if errors.As(err, &e) {
		return e.Class == ErrorClassInput
	}
	return false
}

// IsSynthesis returns true if the error is classified as a synthesis error.
func IsSynthesis(err error) bool {
	var e *EngineError
	if errors.As(err, &e) {
		return e.Class == ErrorClassSynthesis
	}
	return false
}

// IsStructural returns true if the error is classified as structural.
func IsStructural(err error) bool {
	var e *EngineError
	if errors.As(err, &e) {
		return e.Class == ErrorClassStructural
	}
	return false
}

// ClassOf returns the classification of an error. Unclassified errors
// count as internal.
func ClassOf(err error) ErrorClass {
	var e *EngineError
	if errors.As(err, &e) {
		return e.Class
	}
	return ErrorClassInternal
}

// IsFatal returns true if the error should propagate to the caller.
// Only input and internal errors are fatal; synthesis and structural
// findings are captured into result objects instead.
func IsFatal(err error) bool {
	var e *EngineError
	if errors.As(err, &e) {
		return e.Class == ErrorClassInput || e.Class == ErrorClassInternal
	}
	return true
}

// Common error codes.
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeMalformed     = "MALFORMED_TEMPLATE"
	ErrCodeCycle         = "DEPENDENCY_CYCLE"
	ErrCodeSynthFailed   = "SYNTHESIS_FAILED"
	ErrCodeCommandFailed = "COMMAND_FAILED"
	ErrCodeInternal      = "INTERNAL_ERROR"
)
