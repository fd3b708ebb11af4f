package producer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cuongbtq/jobqueue/internal/jobs/domain"
	"github.com/cuongbtq/jobqueue/internal/jobs/queue"
	"github.com/cuongbtq/jobqueue/internal/jobs/store"
	"github.com/cuongbtq/jobqueue/internal/metrics"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, string, domain.Kind) (string, error) {
	return "", errors.New("connection refused")
}

func setup(t *testing.T) (*store.Store, *queue.Queue, *miniredis.Miniredis, *slog.Logger) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return store.NewStore(rdb, store.Config{}, logger), queue.NewQueue(rdb, "", logger), mr, logger
}

func TestProducer_Submit(t *testing.T) {
	s, q, mr, logger := setup(t)
	ctx := context.Background()

	p := NewProducer(&Config{
		Logger:  logger,
		Store:   s,
		Queue:   q,
		Metrics: metrics.New(prometheus.NewRegistry()),
	})

	jobID, err := p.Submit(ctx, domain.KindAddNumbers, domain.Input{"x": 5, "y": 3}, 0)
	require.NoError(t, err)
	_, err = uuid.Parse(jobID)
	require.NoError(t, err)

	job, err := p.Get(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusPending, job.Status)
	assert.Equal(t, domain.KindAddNumbers, job.Type)
	assert.Equal(t, domain.Input{"x": 5, "y": 3}, job.Input)
	assert.Equal(t, domain.DefaultJobTTL, mr.TTL("job:"+jobID))

	entries, err := q.Read(ctx, queue.PositionStart, 10, 10*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, jobID, entries[0].JobID)
	assert.Equal(t, domain.KindAddNumbers, entries[0].Type)
}

func TestProducer_SubmitCustomTTL(t *testing.T) {
	s, q, mr, logger := setup(t)

	p := NewProducer(&Config{Logger: logger, Store: s, Queue: q, DefaultTTL: 10 * time.Minute})

	jobID, err := p.Submit(context.Background(), domain.KindAddNumbers, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, mr.TTL("job:"+jobID))

	jobID, err = p.Submit(context.Background(), domain.KindAddNumbers, nil, 30*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, mr.TTL("job:"+jobID))
}

func TestProducer_SubmitUniqueIDs(t *testing.T) {
	s, q, _, logger := setup(t)
	p := NewProducer(&Config{Logger: logger, Store: s, Queue: q})

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		jobID, err := p.Submit(context.Background(), domain.KindAddNumbers, domain.Input{"x": float64(i)}, 0)
		require.NoError(t, err)
		assert.False(t, seen[jobID], "duplicate id %s", jobID)
		seen[jobID] = true
	}
}

func TestProducer_PublishFailureOrphansJob(t *testing.T) {
	s, _, mr, logger := setup(t)

	p := NewProducer(&Config{Logger: logger, Store: s, Queue: failingPublisher{}})
	p.newID = func() string { return "fixed-id" }

	jobID, err := p.Submit(context.Background(), domain.KindAddNumbers, domain.Input{"x": 1, "y": 2}, 0)
	require.Error(t, err)
	assert.Empty(t, jobID)
	assert.Contains(t, err.Error(), "failed to queue job fixed-id")

	// The record stays pending until its TTL runs out
	assert.Equal(t, "pending", mr.HGet("job:fixed-id", "status"))
	assert.Equal(t, domain.DefaultJobTTL, mr.TTL("job:fixed-id"))
}

func TestProducer_GetUnknown(t *testing.T) {
	s, q, _, logger := setup(t)
	p := NewProducer(&Config{Logger: logger, Store: s, Queue: q})

	_, err := p.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestProducer_SubmittedMetricBoundsTypes(t *testing.T) {
	s, q, _, logger := setup(t)
	reg := prometheus.NewRegistry()

	p := NewProducer(&Config{Logger: logger, Store: s, Queue: q, Metrics: metrics.New(reg)})

	for _, kind := range []domain.Kind{domain.KindAddNumbers, "bogus\xff", "custom"} {
		_, err := p.Submit(context.Background(), kind, nil, 0)
		require.NoError(t, err)
	}

	expected := `
# HELP jobqueue_jobs_submitted_total Jobs accepted by the producer.
# TYPE jobqueue_jobs_submitted_total counter
jobqueue_jobs_submitted_total{type="add_numbers"} 1
jobqueue_jobs_submitted_total{type="unknown"} 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "jobqueue_jobs_submitted_total"))
}
