package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/cuongbtq/jobqueue/internal/jobs/domain"
	goredis "github.com/redis/go-redis/v9"
)

// Hash field names of a job record
const (
	fieldStatus = "status"
	fieldType   = "type"
	fieldInput  = "input_data"
	fieldResult = "result"
	fieldError  = "error"
)

// updateIfExists writes fields only when the job hash is still present,
// so a late update never recreates an expired record without a TTL.
var updateIfExists = goredis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return 0
end
redis.call("HSET", KEYS[1], unpack(ARGV))
return 1
`)

// Config holds job store settings
type Config struct {
	KeyPrefix  string
	DefaultTTL time.Duration
}

// Store keeps job records as Redis hashes keyed by job id
type Store struct {
	client     goredis.Cmdable
	keyPrefix  string
	defaultTTL time.Duration
	logger     *slog.Logger
}

// NewStore creates a new Store instance
func NewStore(client goredis.Cmdable, cfg Config, logger *slog.Logger) *Store {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = domain.DefaultKeyPrefix
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = domain.DefaultJobTTL
	}
	return &Store{
		client:     client,
		keyPrefix:  cfg.KeyPrefix,
		defaultTTL: cfg.DefaultTTL,
		logger:     logger,
	}
}

// Key returns the hash key of a job
func (s *Store) Key(jobID string) string {
	return s.keyPrefix + jobID
}

// Put writes the full job record and sets its TTL. An existing record
// with the same id is replaced. A non-positive ttl uses the store default.
func (s *Store) Put(ctx context.Context, job *domain.Job, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	fields, err := jobToMap(job)
	if err != nil {
		return err
	}

	key := s.Key(job.ID)
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to put job: %w", err)
	}

	s.logger.Debug("Job stored",
		slog.String("job_id", job.ID),
		slog.String("status", string(job.Status)),
		slog.Duration("ttl", ttl),
	)

	return nil
}

// Get retrieves a job by its ID. Returns domain.ErrJobNotFound when the
// record is absent, either expired or never created.
func (s *Store) Get(ctx context.Context, jobID string) (*domain.Job, error) {
	vals, err := s.client.HGetAll(ctx, s.Key(jobID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	if len(vals) == 0 {
		return nil, domain.ErrJobNotFound
	}

	return mapToJob(jobID, vals)
}

// UpdateResult marks the job complete with the given result
func (s *Store) UpdateResult(ctx context.Context, jobID string, result float64) error {
	return s.update(ctx, jobID,
		fieldStatus, string(domain.JobStatusComplete),
		fieldResult, strconv.FormatFloat(result, 'f', -1, 64),
	)
}

// UpdateError marks the job failed with a human-readable message
func (s *Store) UpdateError(ctx context.Context, jobID, message string) error {
	return s.update(ctx, jobID,
		fieldStatus, string(domain.JobStatusFailed),
		fieldError, message,
	)
}

func (s *Store) update(ctx context.Context, jobID string, args ...interface{}) error {
	n, err := updateIfExists.Run(ctx, s.client, []string{s.Key(jobID)}, args...).Int()
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	if n == 0 {
		s.logger.Warn("Job update skipped - record expired or missing",
			slog.String("job_id", jobID),
		)
		return domain.ErrJobNotFound
	}

	s.logger.Info("Job status updated",
		slog.String("job_id", jobID),
		slog.Any("status", args[1]),
	)

	return nil
}

func jobToMap(job *domain.Job) (map[string]interface{}, error) {
	input := job.Input
	if input == nil {
		input = domain.Input{}
	}
	inputJSON, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal input: %w", err)
	}

	m := map[string]interface{}{
		fieldStatus: string(job.Status),
		fieldType:   string(job.Type),
		fieldInput:  string(inputJSON),
	}
	if job.Result != nil {
		m[fieldResult] = strconv.FormatFloat(*job.Result, 'f', -1, 64)
	}
	if job.Error != "" {
		m[fieldError] = job.Error
	}
	return m, nil
}

func mapToJob(jobID string, m map[string]string) (*domain.Job, error) {
	job := &domain.Job{
		ID:     jobID,
		Status: domain.Status(m[fieldStatus]),
		Type:   domain.Kind(m[fieldType]),
		Input:  domain.Input{},
		Error:  m[fieldError],
	}

	if raw := m[fieldInput]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &job.Input); err != nil {
			return nil, fmt.Errorf("%w: failed to parse job input: %v", domain.ErrCorruptRecord, err)
		}
	}

	if raw, ok := m[fieldResult]; ok {
		result, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to parse job result: %v", domain.ErrCorruptRecord, err)
		}
		job.Result = &result
	}

	return job, nil
}
