package worker

import (
	"context"
	"sort"

	"github.com/cuongbtq/jobqueue/internal/jobs/domain"
)

// HandlerFunc runs one job and returns its numeric result. Failures are
// returned as errors, preferably *domain.ProcessingError.
type HandlerFunc func(ctx context.Context, input domain.Input) (float64, error)

// Registry maps job kinds to handlers. It is filled at startup and must
// not be modified once the worker is running.
type Registry struct {
	handlers map[domain.Kind]HandlerFunc
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[domain.Kind]HandlerFunc),
	}
}

// DefaultRegistry returns a registry with every built-in job kind
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(domain.KindAddNumbers, AddNumbers)
	return r
}

// Register sets the handler for kind, replacing any previous one
func (r *Registry) Register(kind domain.Kind, h HandlerFunc) {
	r.handlers[kind] = h
}

// Lookup returns the handler for kind
func (r *Registry) Lookup(kind domain.Kind) (HandlerFunc, bool) {
	h, ok := r.handlers[kind]
	return h, ok
}

// Kinds returns the registered kinds in sorted order
func (r *Registry) Kinds() []domain.Kind {
	kinds := make([]domain.Kind, 0, len(r.handlers))
	for k := range r.handlers {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
