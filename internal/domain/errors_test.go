package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestAnalysisError(t *testing.T) {
	tests := []struct {
		name      string
		code      string
		message   string
		details   string
		requestID string
	}{
		{
			name:      "Background unavailable",
			code:      ErrBackgroundUnavailable,
			message:   "No background rates for hg19",
			details:   "background-hg19.tsv not found in data directory",
			requestID: "req-123",
		},
		{
			name:      "Database error",
			code:      ErrDatabaseError,
			message:   "Database connection failed",
			details:   "Unable to connect to PostgreSQL",
			requestID: "req-456",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewAnalysisError(tt.code, tt.message, tt.details, tt.requestID)

			if err.Code != tt.code {
				t.Errorf("Expected code %s, got %s", tt.code, err.Code)
			}
			if err.Details != tt.details {
				t.Errorf("Expected details %s, got %s", tt.details, err.Details)
			}
			if err.RequestID != tt.requestID {
				t.Errorf("Expected requestID %s, got %s", tt.requestID, err.RequestID)
			}

			// Check that timestamp is recent (within last minute)
			if time.Since(err.Timestamp) > time.Minute {
				t.Errorf("Timestamp should be recent, got %v", err.Timestamp)
			}

			expectedError := tt.code + ": " + tt.message
			if err.Error() != expectedError {
				t.Errorf("Expected error string %s, got %s", expectedError, err.Error())
			}
		})
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("age", "Invalid format", "1 year")

	expected := "validation error for field 'age': Invalid format"
	if err.Error() != expected {
		t.Errorf("Expected error string %s, got %s", expected, err.Error())
	}
	if err.Value != "1 year" {
		t.Errorf("Expected value %v, got %v", "1 year", err.Value)
	}
}

func TestTaskErrors_UnwrapsEveryFailure(t *testing.T) {
	cause := context.DeadlineExceeded
	te := &TaskErrors{Errors: []*DiseaseError{
		{DiseaseID: "OMIM:1", Err: errors.New("boom")},
		{DiseaseID: "OMIM:2", Err: cause},
	}}

	wrapped := fmt.Errorf("run failed: %w", te)

	if !errors.Is(wrapped, cause) {
		t.Errorf("Expected errors.Is to find the second cause")
	}
	var de *DiseaseError
	if !errors.As(wrapped, &de) || de.DiseaseID != "OMIM:1" {
		t.Errorf("Expected errors.As to find the first disease error, got %v", de)
	}
	if got := te.Error(); got != "2 diseases failed to score: scoring OMIM:1: boom; scoring OMIM:2: context deadline exceeded" {
		t.Errorf("Unexpected message %q", got)
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err      error
		expected string
	}{
		{nil, ""},
		{fmt.Errorf("loading: %w", ErrBackgroundRatesUnavailable), ErrBackgroundUnavailable},
		{fmt.Errorf("%w: %q", ErrUnknownGenomeBuild, "hg17"), ErrInvalidConfig},
		{fmt.Errorf("stopped: %w", ErrInterrupted), ErrRunInterrupted},
		{&TaskErrors{Errors: []*DiseaseError{{DiseaseID: "OMIM:1", Err: errors.New("x")}}}, ErrTaskFailure},
		{NewValidationError("f", "m", nil), ErrValidation},
		{NewAnalysisError(ErrRateLimit, "slow down", "", ""), ErrRateLimit},
		{ErrRecordNotFound, ErrNotFound},
		{errors.New("other"), ErrInternalServer},
	}

	for _, tt := range tests {
		if got := ErrorCode(tt.err); got != tt.expected {
			t.Errorf("ErrorCode(%v) = %s, expected %s", tt.err, got, tt.expected)
		}
	}
}
