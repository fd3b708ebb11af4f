package handler

import (
	"context"
	"log/slog"
	"time"

	"github.com/cuongbtq/jobqueue/internal/api/model"
	"github.com/cuongbtq/jobqueue/internal/api/storage"
	"github.com/cuongbtq/jobqueue/internal/jobs/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// JobService submits jobs and reads their status
type JobService interface {
	Submit(ctx context.Context, kind domain.Kind, input domain.Input, ttl time.Duration) (string, error)
	Get(ctx context.Context, jobID string) (*domain.Job, error)
}

// ItemStore is the items repository
type ItemStore interface {
	CreateItem(ctx context.Context, name string, price float64) (*model.Item, error)
	GetItemByID(ctx context.Context, id int64) (*model.Item, error)
	GetItemsByIDs(ctx context.Context, ids []int64) ([]model.Item, error)
	ListItems(ctx context.Context, filter storage.ItemFilter) ([]model.Item, error)
}

// HealthChecker reports whether a backing service is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger      *slog.Logger
	ServiceName string
	Jobs        JobService
	// Items is nil when the database is disabled
	Items    ItemStore
	Health   map[string]HealthChecker
	Gatherer prometheus.Gatherer
}

// JobHandler handles job-related HTTP requests
type JobHandler struct {
	logger *slog.Logger
	jobs   JobService
}

// NewJobHandler creates a new JobHandler instance
func NewJobHandler(deps *Dependencies) *JobHandler {
	return &JobHandler{
		logger: deps.Logger,
		jobs:   deps.Jobs,
	}
}

// ItemHandler handles item CRUD requests
type ItemHandler struct {
	logger *slog.Logger
	items  ItemStore
}

// NewItemHandler creates a new ItemHandler instance
func NewItemHandler(deps *Dependencies) *ItemHandler {
	return &ItemHandler{
		logger: deps.Logger,
		items:  deps.Items,
	}
}
