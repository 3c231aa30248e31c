package service

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks caller-fixable input problems. Nothing has been written when it is returned.
	ErrValidation = errors.New("validation failed")
	// ErrForbidden is returned when the caller does not own the resource.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound is returned when the resource id does not exist.
	ErrNotFound = errors.New("not found")
	// ErrStorage wraps object store failures.
	ErrStorage = errors.New("storage error")
	// ErrProcessing marks a document whose extraction or analysis failed.
	ErrProcessing = errors.New("document processing failed")
)

// ValidationError carries a human-readable reason for rejecting input.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// ProcessingError reports the pipeline stage that failed for a document.
type ProcessingError struct {
	DocumentID int64
	Stage      string
	Cause      error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("document %d: %s stage failed: %v", e.DocumentID, e.Stage, e.Cause)
}

func (e *ProcessingError) Unwrap() error { return e.Cause }

func (e *ProcessingError) Is(target error) bool { return target == ErrProcessing }
