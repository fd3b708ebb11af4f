package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cuongbtq/jobqueue/internal/jobs/domain"
	"github.com/cuongbtq/jobqueue/internal/jobs/poller"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClient_Submit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/add-numbers", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("x"))
		assert.Equal(t, "3.5", r.URL.Query().Get("y"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"Addition job created","job_id":"abc"}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/", nil, discard())

	id, err := c.Submit(context.Background(), 5, 3.5)
	require.NoError(t, err)
	assert.Equal(t, "abc", id)
}

func TestClient_SubmitRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to create job"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, nil, discard()).Submit(context.Background(), 1, 2)
	require.ErrorIs(t, err, ErrUnexpectedStatus)
}

func TestClient_Get(t *testing.T) {
	result := 8.0

	tests := []struct {
		name    string
		status  int
		body    string
		want    *domain.Job
		wantErr error
	}{
		{
			name:   "pending",
			status: http.StatusOK,
			body:   `{"status":"pending","message":"Job is still being processed"}`,
			want:   &domain.Job{ID: "j", Status: domain.JobStatusPending, Type: domain.KindAddNumbers},
		},
		{
			name:   "complete",
			status: http.StatusOK,
			body:   `{"status":"complete","result":8,"input":{"x":5,"y":3}}`,
			want: &domain.Job{
				ID:     "j",
				Status: domain.JobStatusComplete,
				Type:   domain.KindAddNumbers,
				Input:  domain.Input{"x": 5, "y": 3},
				Result: &result,
			},
		},
		{
			name:   "failed",
			status: http.StatusOK,
			body:   `{"status":"failed","error":"Unknown job type: bogus"}`,
			want:   &domain.Job{ID: "j", Status: domain.JobStatusFailed, Type: domain.KindAddNumbers, Error: "Unknown job type: bogus"},
		},
		{
			name:    "not found",
			status:  http.StatusNotFound,
			body:    `{"error":"Job not found"}`,
			wantErr: domain.ErrJobNotFound,
		},
		{
			name:    "server error",
			status:  http.StatusInternalServerError,
			body:    `{"error":"Failed to get job"}`,
			wantErr: ErrUnexpectedStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/add-numbers/j", r.URL.Path)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			job, err := New(srv.URL, nil, discard()).Get(context.Background(), "j")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, job)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, job)
		})
	}
}

func TestClient_GetUnknownStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"running"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, nil, discard()).Get(context.Background(), "j")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown status "running"`)
}

func TestClient_WithPoller(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls < 3 {
			_, _ = w.Write([]byte(`{"status":"pending","message":"Job is still being processed"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"complete","result":8,"input":{"x":5,"y":3}}`))
	}))
	defer srv.Close()

	p := poller.NewPoller(New(srv.URL, nil, discard()), discard())

	job, err := p.AwaitResult(context.Background(), "j", time.Millisecond, 5)
	require.NoError(t, err)
	require.NotNil(t, job.Result)
	assert.Equal(t, 8.0, *job.Result)
	assert.Equal(t, 3, calls)
}

func TestClient_WithPollerFailedJob(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"failed","error":"boom"}`))
	}))
	defer srv.Close()

	p := poller.NewPoller(New(srv.URL, nil, discard()), discard())

	_, err := p.AwaitResult(context.Background(), "j", time.Millisecond, 5)
	var failed *domain.JobFailedError
	require.True(t, errors.As(err, &failed))
	assert.Equal(t, "boom", failed.Message)
}
