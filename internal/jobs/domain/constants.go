package domain

import "time"

// Status is the lifecycle state of a job record.
type Status string

// Job status constants
const (
	JobStatusPending  Status = "pending"
	JobStatusComplete Status = "complete"
	JobStatusFailed   Status = "failed"
)

// IsTerminal reports whether no further transition can happen.
func (s Status) IsTerminal() bool {
	return s == JobStatusComplete || s == JobStatusFailed
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s == JobStatusPending || s.IsTerminal()
}

// Kind selects the processing routine for a job.
type Kind string

// Known job kinds
const (
	KindAddNumbers Kind = "add_numbers"
)

// Builtin reports whether k is handled by the default worker registry.
func (k Kind) Builtin() bool {
	return k == KindAddNumbers
}

// Redis layout defaults
const (
	DefaultKeyPrefix  = "job:"
	DefaultStreamName = "jobs_stream"
	DefaultJobTTL     = time.Hour
)
