package handler

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/cuongbtq/jobqueue/internal/api/dto"
	"github.com/cuongbtq/jobqueue/internal/jobs/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AddNumbers handles POST /add-numbers?x=&y=
// Queues an addition job and returns its id without waiting
func (h *JobHandler) AddNumbers(c *gin.Context) {
	var req dto.AddNumbersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Warn("Invalid add-numbers query", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "x and y must be numbers",
		})
		return
	}

	x, y := *req.X, *req.Y
	if !isFinite(x) || !isFinite(y) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "x and y must be finite numbers",
		})
		return
	}

	jobID, err := h.jobs.Submit(c.Request.Context(), domain.KindAddNumbers, domain.Input{"x": x, "y": y}, 0)
	if err != nil {
		h.logger.Error("Failed to submit job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create job",
		})
		return
	}

	c.JSON(http.StatusOK, dto.SubmitJobResponse{
		Message: "Addition job created",
		JobID:   jobID,
	})
}

// GetAddNumbersResult handles GET /add-numbers/:job_id
func (h *JobHandler) GetAddNumbersResult(c *gin.Context) {
	job, ok := h.loadJob(c, c.Param("job_id"))
	if !ok {
		return
	}

	resp := dto.AddNumbersResultResponse{Status: string(job.Status)}
	switch job.Status {
	case domain.JobStatusPending:
		resp.Message = "Job is still being processed"
	case domain.JobStatusFailed:
		resp.Error = &job.Error
	case domain.JobStatusComplete:
		resp.Result = job.Result
		resp.Input = job.Input
	}

	c.JSON(http.StatusOK, resp)
}

// CreateJob handles POST /api/v1/jobs
// Queues a job of any type. Types without a handler fail in the worker.
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req dto.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	for _, v := range req.Input {
		if !isFinite(v) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "input values must be finite numbers",
			})
			return
		}
	}

	ttl := time.Duration(req.TTLSeconds) * time.Second
	jobID, err := h.jobs.Submit(c.Request.Context(), domain.Kind(req.Type), domain.Input(req.Input), ttl)
	if err != nil {
		h.logger.Error("Failed to submit job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create job",
		})
		return
	}

	c.JSON(http.StatusOK, dto.SubmitJobResponse{
		Message: "Job created",
		JobID:   jobID,
	})
}

// GetJob handles GET /api/v1/jobs/:job_id
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID := c.Param("job_id")
	if _, err := uuid.Parse(jobID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job_id must be a valid UUID",
		})
		return
	}

	job, ok := h.loadJob(c, jobID)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, dto.JobDTO{
		JobID:  job.ID,
		Status: string(job.Status),
		Type:   string(job.Type),
		Input:  job.Input,
		Result: job.Result,
		Error:  job.Error,
	})
}

// loadJob reads the job and writes the error response when it cannot
func (h *JobHandler) loadJob(c *gin.Context, jobID string) (*domain.Job, bool) {
	job, err := h.jobs.Get(c.Request.Context(), jobID)
	if errors.Is(err, domain.ErrJobNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Job not found",
		})
		return nil, false
	}
	if err != nil {
		h.logger.Error("Failed to get job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get job",
		})
		return nil, false
	}
	return job, true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
