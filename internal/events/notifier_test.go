package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/cuongbtq/jobqueue/internal/jobs/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	bodies       [][]byte
	contentTypes []string
	err          error
}

func (f *fakePublisher) PublishWithRetry(_ context.Context, body []byte, contentType string) error {
	if f.err != nil {
		return f.err
	}
	f.bodies = append(f.bodies, body)
	f.contentTypes = append(f.contentTypes, contentType)
	return nil
}

func newTestNotifier(p Publisher) *Notifier {
	n := NewNotifier(p, slog.New(slog.NewTextHandler(io.Discard, nil)))
	n.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return n
}

func TestNotifier_Notify(t *testing.T) {
	result := 8.0

	tests := []struct {
		name     string
		job      *domain.Job
		wantBody string
	}{
		{
			name: "complete",
			job: &domain.Job{
				ID:     "job-1",
				Type:   domain.KindAddNumbers,
				Status: domain.JobStatusComplete,
				Result: &result,
			},
			wantBody: `{"job_id":"job-1","type":"add_numbers","status":"complete","result":8,"finished_at":"2024-05-01T12:00:00Z"}`,
		},
		{
			name: "failed",
			job: &domain.Job{
				ID:     "job-2",
				Type:   "bogus",
				Status: domain.JobStatusFailed,
				Error:  "Unknown job type: bogus",
			},
			wantBody: `{"job_id":"job-2","type":"bogus","status":"failed","error":"Unknown job type: bogus","finished_at":"2024-05-01T12:00:00Z"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakePublisher{}
			require.NoError(t, newTestNotifier(p).Notify(context.Background(), tt.job))

			require.Len(t, p.bodies, 1)
			assert.JSONEq(t, tt.wantBody, string(p.bodies[0]))
			assert.Equal(t, "application/json", p.contentTypes[0])
		})
	}
}

func TestNotifier_RejectsPendingJob(t *testing.T) {
	p := &fakePublisher{}
	err := newTestNotifier(p).Notify(context.Background(), domain.NewJob("job-1", domain.KindAddNumbers, nil))
	assert.Error(t, err)
	assert.Empty(t, p.bodies)
}

func TestNotifier_PublishError(t *testing.T) {
	p := &fakePublisher{err: errors.New("broker down")}
	err := newTestNotifier(p).Notify(context.Background(), &domain.Job{ID: "j", Status: domain.JobStatusFailed})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}
