package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/cuongbtq/jobqueue/internal/jobs/domain"
)

// ErrUnexpectedStatus is returned for responses the API does not document
var ErrUnexpectedStatus = errors.New("unexpected response status")

// Client talks to the addition endpoints of the API service
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a client for the API at baseURL. A nil httpClient uses
// http.DefaultClient.
func New(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

type submitResponse struct {
	Message string `json:"message"`
	JobID   string `json:"job_id"`
}

type resultResponse struct {
	Status  string             `json:"status"`
	Message string             `json:"message"`
	Error   string             `json:"error"`
	Result  *float64           `json:"result"`
	Input   map[string]float64 `json:"input"`
}

// Submit queues x + y and returns the job id
func (c *Client) Submit(ctx context.Context, x, y float64) (string, error) {
	query := url.Values{}
	query.Set("x", strconv.FormatFloat(x, 'g', -1, 64))
	query.Set("y", strconv.FormatFloat(y, 'g', -1, 64))

	var resp submitResponse
	status, err := c.do(ctx, http.MethodPost, "/add-numbers?"+query.Encode(), &resp)
	if err != nil {
		return "", fmt.Errorf("failed to submit job: %w", err)
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("failed to submit job: %w: %d", ErrUnexpectedStatus, status)
	}
	if resp.JobID == "" {
		return "", errors.New("failed to submit job: response has no job_id")
	}

	c.logger.Debug("Job submitted",
		slog.String("job_id", resp.JobID),
	)
	return resp.JobID, nil
}

// Get reads the current state of an addition job. Unknown or expired jobs
// return domain.ErrJobNotFound.
func (c *Client) Get(ctx context.Context, jobID string) (*domain.Job, error) {
	var resp resultResponse
	status, err := c.do(ctx, http.MethodGet, "/add-numbers/"+url.PathEscape(jobID), &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	switch status {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, domain.ErrJobNotFound
	default:
		return nil, fmt.Errorf("failed to get job: %w: %d", ErrUnexpectedStatus, status)
	}

	job := &domain.Job{
		ID:     jobID,
		Status: domain.Status(resp.Status),
		Type:   domain.KindAddNumbers,
		Input:  resp.Input,
		Result: resp.Result,
		Error:  resp.Error,
	}
	if !job.Status.Valid() {
		return nil, fmt.Errorf("failed to get job: unknown status %q", resp.Status)
	}
	return job, nil
}

// do sends the request and decodes a JSON body into out. Error bodies are
// decoded too but only the status is reported.
func (c *Client) do(ctx context.Context, method, path string, out interface{}) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Debug("API returned error",
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(body)),
		)
		return resp.StatusCode, nil
	}

	if err := json.Unmarshal(body, out); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}
	return resp.StatusCode, nil
}
