package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrJobNotFound is returned when a job id is unknown or its record has expired
	ErrJobNotFound = errors.New("job not found")

	// ErrUnknownJobType is returned when no handler is registered for a job type
	ErrUnknownJobType = errors.New("unknown job type")

	// ErrInvalidInput is returned when a job's input does not fit its handler
	ErrInvalidInput = errors.New("invalid job input")

	// ErrJobAlreadyTerminal is returned when a job has already reached complete or failed
	ErrJobAlreadyTerminal = errors.New("job already in terminal status")

	// ErrCorruptRecord is returned when a stored job record cannot be parsed
	ErrCorruptRecord = errors.New("corrupt job record")

	// ErrPollTimeout is returned when a job does not finish within the allowed polling attempts
	ErrPollTimeout = errors.New("job did not finish within polling attempts")
)

// Failure kinds recorded by the worker
const (
	FailureUnknownType  = "unknown_type"
	FailureInvalidInput = "invalid_input"
	FailurePanic        = "panic"
	FailureExecution    = "execution"
)

// ProcessingError is the failure outcome of a job handler. Message is what
// gets written into the job record.
type ProcessingError struct {
	Kind    string
	Message string
	Err     error
}

func (e *ProcessingError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// NewProcessingError creates a processing failure of the given kind
func NewProcessingError(kind string, err error) error {
	return &ProcessingError{Kind: kind, Message: err.Error(), Err: err}
}

// UnknownTypeError builds the failure recorded for a type with no handler.
// The message format is part of the public job status.
func UnknownTypeError(kind Kind) error {
	return &ProcessingError{
		Kind:    FailureUnknownType,
		Message: fmt.Sprintf("Unknown job type: %s", kind),
		Err:     ErrUnknownJobType,
	}
}

// JobFailedError surfaces a failed job's stored error message to pollers.
type JobFailedError struct {
	JobID   string
	Message string
}

func (e *JobFailedError) Error() string {
	return fmt.Sprintf("job %s failed: %s", e.JobID, e.Message)
}
