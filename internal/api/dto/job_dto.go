package dto

// AddNumbersRequest is the query of POST /add-numbers
type AddNumbersRequest struct {
	X *float64 `form:"x" binding:"required"`
	Y *float64 `form:"y" binding:"required"`
}

// SubmitJobResponse is returned when a job has been accepted
type SubmitJobResponse struct {
	Message string `json:"message"`
	JobID   string `json:"job_id"`
}

// AddNumbersResultResponse has one shape per job status:
// pending {status, message}, failed {status, error}, complete {status, result, input}
type AddNumbersResultResponse struct {
	Status  string             `json:"status"`
	Message string             `json:"message,omitempty"`
	Error   *string            `json:"error,omitempty"`
	Result  *float64           `json:"result,omitempty"`
	Input   map[string]float64 `json:"input,omitempty"`
}

// CreateJobRequest is the body of POST /api/v1/jobs. TTLSeconds is capped
// at 30 days.
type CreateJobRequest struct {
	Type       string             `json:"type" binding:"required"`
	Input      map[string]float64 `json:"input"`
	TTLSeconds int64              `json:"ttl_seconds" binding:"omitempty,min=0,max=2592000"`
}

type JobDTO struct {
	JobID  string             `json:"job_id"`
	Status string             `json:"status"`
	Type   string             `json:"type"`
	Input  map[string]float64 `json:"input"`
	Result *float64           `json:"result,omitempty"`
	Error  string             `json:"error,omitempty"`
}
