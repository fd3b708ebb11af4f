package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/jobqueue/internal/jobs/domain"
	goredis "github.com/redis/go-redis/v9"
)

// Read positions
const (
	// PositionTail reads only entries appended after the read starts
	PositionTail = "$"
	// PositionStart reads the stream from its oldest entry
	PositionStart = "0"
	// emptyStreamID precedes every entry id Redis can generate
	emptyStreamID = "0-0"
)

// Stream entry field names
const (
	fieldJobID = "job_id"
	fieldType  = "type"
)

// Queue is an append-only, blocking-readable log of job submissions
// backed by a Redis stream
type Queue struct {
	client goredis.Cmdable
	stream string
	logger *slog.Logger
}

// NewQueue creates a new Queue on the given stream key
func NewQueue(client goredis.Cmdable, stream string, logger *slog.Logger) *Queue {
	if stream == "" {
		stream = domain.DefaultStreamName
	}
	return &Queue{
		client: client,
		stream: stream,
		logger: logger,
	}
}

// Stream returns the stream key
func (q *Queue) Stream() string {
	return q.stream
}

// Publish appends an entry for the job and returns the entry id
func (q *Queue) Publish(ctx context.Context, jobID string, kind domain.Kind) (string, error) {
	entryID, err := q.client.XAdd(ctx, &goredis.XAddArgs{
		Stream: q.stream,
		Values: map[string]interface{}{
			fieldJobID: jobID,
			fieldType:  string(kind),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("failed to publish job: %w", err)
	}

	q.logger.Debug("Job published to queue",
		slog.String("job_id", jobID),
		slog.String("entry_id", entryID),
		slog.String("stream", q.stream),
	)

	return entryID, nil
}

// TailID returns the id of the newest entry, or "0-0" when the stream is
// empty. Reading after it sees exactly the entries appended from now on.
func (q *Queue) TailID(ctx context.Context) (string, error) {
	msgs, err := q.client.XRevRangeN(ctx, q.stream, "+", "-", 1).Result()
	if err != nil {
		return "", fmt.Errorf("failed to read stream tail: %w", err)
	}
	if len(msgs) == 0 {
		return emptyStreamID, nil
	}
	return msgs[0].ID, nil
}

// Read blocks until entries newer than position exist or block elapses.
// A zero block waits indefinitely. On timeout it returns no entries and no
// error.
func (q *Queue) Read(ctx context.Context, position string, count int64, block time.Duration) ([]domain.QueueEntry, error) {
	streams, err := q.client.XRead(ctx, &goredis.XReadArgs{
		Streams: []string{q.stream, position},
		Count:   count,
		Block:   block,
	}).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read queue: %w", err)
	}

	var entries []domain.QueueEntry
	for _, stream := range streams {
		for _, msg := range stream.Messages {
			entries = append(entries, toEntry(msg))
		}
	}
	return entries, nil
}

// Delete removes a consumed entry. Deleting an entry that is already gone
// is not an error.
func (q *Queue) Delete(ctx context.Context, entryID string) error {
	n, err := q.client.XDel(ctx, q.stream, entryID).Result()
	if err != nil {
		return fmt.Errorf("failed to delete queue entry: %w", err)
	}

	if n == 0 {
		q.logger.Debug("Queue entry already deleted",
			slog.String("entry_id", entryID),
		)
	}

	return nil
}

// Len returns the number of entries still in the stream
func (q *Queue) Len(ctx context.Context) (int64, error) {
	n, err := q.client.XLen(ctx, q.stream).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get queue length: %w", err)
	}
	return n, nil
}

func toEntry(msg goredis.XMessage) domain.QueueEntry {
	jobID, _ := msg.Values[fieldJobID].(string)
	kind, _ := msg.Values[fieldType].(string)
	return domain.QueueEntry{
		ID:    msg.ID,
		JobID: jobID,
		Type:  domain.Kind(kind),
	}
}
