// Package domain contains custom error types for the application.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Base errors
var (
	ErrNoCredential      = errors.New("no API credential configured")
	ErrTransport         = errors.New("remote call failed")
	ErrMalformedPayload  = errors.New("response is not valid JSON")
	ErrSchemaViolation   = errors.New("response does not match the analysis schema")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnknownCurrency   = errors.New("unsupported currency")
	ErrUnknownProfile    = errors.New("unknown demo profile")
	ErrProviderMisconfig = errors.New("AI provider misconfigured")
)

// SchemaError describes the first field that failed result validation
type SchemaError struct {
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error [field=%s]: %s", e.Field, e.Reason)
}

func (e *SchemaError) Unwrap() error {
	return ErrSchemaViolation
}

// NewSchemaError creates a new SchemaError
func NewSchemaError(field, reason string) *SchemaError {
	return &SchemaError{
		Field:  field,
		Reason: reason,
	}
}

// ValidationError represents user input validation errors. Fields lists
// every input the message applies to.
type ValidationError struct {
	Fields  []string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error [fields=%s]: %s", strings.Join(e.Fields, ","), e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(message string, fields ...string) *ValidationError {
	return &ValidationError{
		Fields:  fields,
		Message: message,
	}
}

// AnalysisError represents a failure in one stage of the analysis pipeline
type AnalysisError struct {
	Stage string
	Err   error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analysis error [stage=%s]: %v", e.Stage, e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// NewAnalysisError creates a new AnalysisError
func NewAnalysisError(stage string, err error) *AnalysisError {
	return &AnalysisError{
		Stage: stage,
		Err:   err,
	}
}

// ReasonFor maps a pipeline error onto the degradation reason reported to
// callers.
func ReasonFor(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoCredential):
		return ReasonNoCredential
	case errors.Is(err, ErrMalformedPayload):
		return ReasonMalformedPayload
	case errors.Is(err, ErrSchemaViolation):
		return ReasonSchemaViolation
	default:
		return ReasonTransport
	}
}
