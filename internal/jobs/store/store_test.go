package store

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cuongbtq/jobqueue/internal/jobs/domain"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewStore(rdb, Config{}, logger), mr
}

func TestStore_PutAndGet(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	job := domain.NewJob("job-1", domain.KindAddNumbers, domain.Input{"x": 5, "y": 3})
	require.NoError(t, s.Put(ctx, job, 0))

	got, err := s.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, "job-1", got.ID)
	assert.Equal(t, domain.JobStatusPending, got.Status)
	assert.Equal(t, domain.KindAddNumbers, got.Type)
	assert.Equal(t, domain.Input{"x": 5, "y": 3}, got.Input)
	assert.Nil(t, got.Result)
	assert.Empty(t, got.Error)

	// Layout is part of the external contract
	assert.Equal(t, "pending", mr.HGet("job:job-1", "status"))
	assert.Equal(t, "add_numbers", mr.HGet("job:job-1", "type"))
	assert.JSONEq(t, `{"x":5,"y":3}`, mr.HGet("job:job-1", "input_data"))
	assert.Equal(t, domain.DefaultJobTTL, mr.TTL("job:job-1"))
}

func TestStore_PutOverwrites(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	first := domain.NewJob("job-1", domain.KindAddNumbers, domain.Input{"x": 1})
	first.Error = "stale"
	require.NoError(t, s.Put(ctx, first, time.Minute))

	second := domain.NewJob("job-1", domain.KindAddNumbers, domain.Input{"x": 2})
	require.NoError(t, s.Put(ctx, second, 2*time.Minute))

	got, err := s.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.Input{"x": 2}, got.Input)
	assert.Empty(t, got.Error)
	assert.Equal(t, 2*time.Minute, mr.TTL("job:job-1"))
}

func TestStore_GetNotFound(t *testing.T) {
	s, _ := newTestStore(t)

	got, err := s.Get(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrJobNotFound)
	assert.Nil(t, got)
}

func TestStore_Expiry(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, domain.NewJob("job-1", domain.KindAddNumbers, nil), time.Second))
	mr.FastForward(2 * time.Second)

	_, err := s.Get(ctx, "job-1")
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestStore_UpdateResult(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, domain.NewJob("job-1", domain.KindAddNumbers, domain.Input{"x": 5, "y": 3}), 0))
	require.NoError(t, s.UpdateResult(ctx, "job-1", 8))

	got, err := s.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusComplete, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, 8.0, *got.Result)
	assert.Equal(t, domain.Input{"x": 5, "y": 3}, got.Input)

	// The partial write keeps the TTL set at creation
	assert.Equal(t, domain.DefaultJobTTL, mr.TTL("job:job-1"))
}

func TestStore_UpdateError(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, domain.NewJob("job-1", "bogus", nil), 0))
	require.NoError(t, s.UpdateError(ctx, "job-1", "Unknown job type: bogus"))

	got, err := s.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusFailed, got.Status)
	assert.Equal(t, "Unknown job type: bogus", got.Error)
	assert.Nil(t, got.Result)
}

func TestStore_UpdateMissingDoesNotRecreate(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	err := s.UpdateResult(ctx, "gone", 1)
	require.ErrorIs(t, err, domain.ErrJobNotFound)

	err = s.UpdateError(ctx, "gone", "boom")
	require.ErrorIs(t, err, domain.ErrJobNotFound)

	assert.False(t, mr.Exists("job:gone"))
}

func TestStore_GetCorruptResult(t *testing.T) {
	s, mr := newTestStore(t)

	mr.HSet("job:job-1", "status", "complete", "type", "add_numbers", "input_data", "{}", "result", "not-a-number")

	_, err := s.Get(context.Background(), "job-1")
	require.ErrorIs(t, err, domain.ErrCorruptRecord)
	assert.Contains(t, err.Error(), "failed to parse job result")
}

func TestStore_CustomPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	s := NewStore(rdb, Config{KeyPrefix: "calc:", DefaultTTL: time.Minute}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, s.Put(context.Background(), domain.NewJob("a", domain.KindAddNumbers, nil), 0))

	assert.True(t, mr.Exists("calc:a"))
	assert.Equal(t, time.Minute, mr.TTL("calc:a"))
}
