// Package shared contains common domain types and errors that are used across
// all domain packages.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	ErrNotFound     = errors.New("entity not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidState = errors.New("invalid state")

	ErrValidation      = errors.New("validation error")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "journal", "timetable", "report"
	Op      string // Operation that failed, e.g., "Resolve", "Load"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Calendar domain errors
var (
	ErrInvalidAcademicYear = NewDomainError("calendar", "ParseAcademicYear", ErrInvalidFormat, "academic year must look like YYYY/YYYY+1")
)

// Timetable domain errors
var (
	ErrInvalidTimetable = NewDomainError("timetable", "Validate", ErrInvalidState, "timetable has duplicate period numbers")
	ErrInvalidPeriod    = NewDomainError("timetable", "Validate", ErrValueOutOfRange, "period number must be positive")
)

// Journal domain errors
var (
	// ErrDataUnavailable aborts a whole batch before resolution starts.
	ErrDataUnavailable = NewDomainError("journal", "Load", ErrServiceUnavailable, "journal input data is unavailable")
	ErrInputsMissing   = NewDomainError("journal", "Resolve", ErrNotFound, "no inputs loaded for date")
)

// Report domain errors
var (
	ErrInvalidMode    = NewDomainError("report", "Validate", ErrInvalidInput, "mode must be one of day, week, month, semester")
	ErrInvalidRequest = NewDomainError("report", "Validate", ErrValidation, "invalid journal request")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidFormat) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsDataUnavailable checks if the error means required inputs could not be fetched.
func IsDataUnavailable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrExternalService)
}
