package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// AnalysisError represents a standardized error response
type AnalysisError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}

// Error implements the error interface
func (e *AnalysisError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes for different failure scenarios
const (
	ErrInvalidInput          = "INVALID_INPUT"
	ErrInvalidConfig         = "INVALID_CONFIG"
	ErrBackgroundUnavailable = "BACKGROUND_UNAVAILABLE"
	ErrRunInterrupted        = "RUN_INTERRUPTED"
	ErrTaskFailure           = "TASK_FAILURE"
	ErrDatabaseError         = "DATABASE_ERROR"
	ErrNotFound              = "NOT_FOUND"
	ErrRateLimit             = "RATE_LIMIT_EXCEEDED"
	ErrInternalServer        = "INTERNAL_SERVER_ERROR"
	ErrValidation            = "VALIDATION_ERROR"
)

// Sentinel errors. Wrap them with fmt.Errorf("...: %w", ...) and test with errors.Is.
var (
	// ErrBackgroundRatesUnavailable means no background variant rate table
	// exists for the requested genome build. It aborts the whole run.
	ErrBackgroundRatesUnavailable = errors.New("background variant rates unavailable for genome build")
	ErrUnknownGenomeBuild         = errors.New("unknown genome build")
	ErrInterrupted                = errors.New("analysis interrupted")
	ErrMissingPretestProvider     = errors.New("pretest probability provider is required")
	ErrRecordNotFound             = errors.New("record not found")
)

// ValidationError represents input validation errors
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// NewAnalysisError creates a new AnalysisError with timestamp
func NewAnalysisError(code, message, details, requestID string) *AnalysisError {
	return &AnalysisError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// DiseaseError records a failure while scoring one disease.
type DiseaseError struct {
	DiseaseID TermID
	Err       error
}

// Error implements the error interface
func (e *DiseaseError) Error() string {
	return fmt.Sprintf("scoring %s: %v", e.DiseaseID, e.Err)
}

// Unwrap returns the underlying cause.
func (e *DiseaseError) Unwrap() error {
	return e.Err
}

// TaskErrors aggregates the per-disease failures of a run. A run that returns
// TaskErrors did not complete and its partial results must not be reported.
type TaskErrors struct {
	Errors []*DiseaseError
}

// Error implements the error interface
func (e *TaskErrors) Error() string {
	if len(e.Errors) == 1 {
		return "1 disease failed to score: " + e.Errors[0].Error()
	}
	msgs := make([]string, 0, len(e.Errors))
	for i, err := range e.Errors {
		if i == 3 {
			msgs = append(msgs, fmt.Sprintf("and %d more", len(e.Errors)-3))
			break
		}
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%d diseases failed to score: %s", len(e.Errors), strings.Join(msgs, "; "))
}

// Unwrap exposes every failure to errors.Is and errors.As.
func (e *TaskErrors) Unwrap() []error {
	out := make([]error, len(e.Errors))
	for i, err := range e.Errors {
		out[i] = err
	}
	return out
}

// ErrorCode maps an error onto one of the error code constants.
func ErrorCode(err error) string {
	var ae *AnalysisError
	var ve *ValidationError
	var te *TaskErrors
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ae):
		return ae.Code
	case errors.As(err, &ve):
		return ErrValidation
	case errors.Is(err, ErrBackgroundRatesUnavailable):
		return ErrBackgroundUnavailable
	case errors.Is(err, ErrUnknownGenomeBuild), errors.Is(err, ErrMissingPretestProvider):
		return ErrInvalidConfig
	case errors.Is(err, ErrInterrupted):
		return ErrRunInterrupted
	case errors.As(err, &te):
		return ErrTaskFailure
	case errors.Is(err, ErrRecordNotFound):
		return ErrNotFound
	}
	return ErrInternalServer
}
