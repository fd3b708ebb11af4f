package domain

// Input holds the named numeric parameters of a job.
type Input map[string]float64

// Job is a unit of asynchronous work as persisted in the job store.
// Result is set only when Status is complete, Error only when failed.
type Job struct {
	ID     string
	Status Status
	Type   Kind
	Input  Input
	Result *float64
	Error  string
}

// NewJob returns a pending job.
func NewJob(id string, kind Kind, input Input) *Job {
	if input == nil {
		input = Input{}
	}
	return &Job{
		ID:     id,
		Status: JobStatusPending,
		Type:   kind,
		Input:  input,
	}
}

// QueueEntry is a pointer to a job published on the work queue.
type QueueEntry struct {
	ID    string // stream entry id assigned by the queue
	JobID string
	Type  Kind
}
