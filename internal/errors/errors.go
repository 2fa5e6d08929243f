package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies pipeline errors by the failure domain they belong to.
// Input and storage errors are fatal for the run; data-quality anomalies are
// recovered locally and never surface as errors.
type ErrorType string

const (
	ErrTypeInput      ErrorType = "INPUT"
	ErrTypeParsing    ErrorType = "PARSING"
	ErrTypeStorage    ErrorType = "STORAGE"
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeNotFound   ErrorType = "NOT_FOUND"
	ErrTypeConfig     ErrorType = "CONFIG"
)

// PipelineError is an error annotated with the failing stage and enough
// context for operator diagnosis (file, symbol, row).
type PipelineError struct {
	Type    ErrorType
	Stage   string
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s: %v", e.Type, e.Stage, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Stage, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with PipelineError
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *PipelineError) WithContext(key string, value interface{}) *PipelineError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new pipeline error
func New(errType ErrorType, stage, message string, cause error) *PipelineError {
	return &PipelineError{
		Type:    errType,
		Stage:   stage,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewInputError creates an input-boundary error (missing or unreadable input)
func NewInputError(stage, message string, cause error) *PipelineError {
	return New(ErrTypeInput, stage, message, cause)
}

// NewParsingError creates a parsing error for a malformed input row
func NewParsingError(stage, message string, cause error) *PipelineError {
	return New(ErrTypeParsing, stage, message, cause)
}

// NewStorageError creates a persistence error (watermark store, snapshot write)
func NewStorageError(stage, message string, cause error) *PipelineError {
	return New(ErrTypeStorage, stage, message, cause)
}

// NewConfigError creates a configuration error
func NewConfigError(stage, message string, cause error) *PipelineError {
	return New(ErrTypeConfig, stage, message, cause)
}

// IsType reports whether err is, or wraps, a PipelineError of the given type
func IsType(err error, errType ErrorType) bool {
	var pe *PipelineError
	return errors.As(err, &pe) && pe.Type == errType
}
