package metrics

import (
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "jobqueue"

// Job outcomes as recorded by the worker
const (
	OutcomeComplete = "complete"
	OutcomeFailed   = "failed"
	OutcomeMissing  = "missing"
	OutcomeSkipped  = "skipped"
)

// UnknownType is the type label for job kinds without a handler. Callers
// map free-form kinds to it so label cardinality stays bounded.
const UnknownType = "unknown"

// Metrics holds the Prometheus collectors shared by the API and the worker.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	jobsSubmitted   *prometheus.CounterVec
	publishFailures prometheus.Counter
	jobsProcessed   *prometheus.CounterVec
	jobDuration     *prometheus.HistogramVec
	queueReadErrors prometheus.Counter
	acksFailed      prometheus.Counter
}

// New creates the collectors and registers them on reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		jobsSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_submitted_total",
			Help:      "Jobs accepted by the producer.",
		}, []string{"type"}),
		publishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_publish_failures_total",
			Help:      "Jobs stored but not published to the work queue.",
		}),
		jobsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_processed_total",
			Help:      "Queue entries handled by the worker, by outcome.",
		}, []string{"type", "outcome"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Time spent running job handlers.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"type"}),
		queueReadErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_read_errors_total",
			Help:      "Failed blocking reads on the work queue.",
		}),
		acksFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_ack_failures_total",
			Help:      "Queue entries that could not be deleted after processing.",
		}),
	}

	reg.MustRegister(
		m.jobsSubmitted,
		m.publishFailures,
		m.jobsProcessed,
		m.jobDuration,
		m.queueReadErrors,
		m.acksFailed,
	)

	return m
}

// JobSubmitted counts an accepted job
func (m *Metrics) JobSubmitted(jobType string) {
	if m == nil {
		return
	}
	m.jobsSubmitted.WithLabelValues(typeLabel(jobType)).Inc()
}

// PublishFailed counts a job orphaned by a failed queue publish
func (m *Metrics) PublishFailed() {
	if m == nil {
		return
	}
	m.publishFailures.Inc()
}

// JobProcessed counts a handled queue entry
func (m *Metrics) JobProcessed(jobType, outcome string) {
	if m == nil {
		return
	}
	m.jobsProcessed.WithLabelValues(typeLabel(jobType), outcome).Inc()
}

// ObserveDuration records handler run time
func (m *Metrics) ObserveDuration(jobType string, d time.Duration) {
	if m == nil {
		return
	}
	m.jobDuration.WithLabelValues(typeLabel(jobType)).Observe(d.Seconds())
}

// QueueReadFailed counts a failed queue read
func (m *Metrics) QueueReadFailed() {
	if m == nil {
		return
	}
	m.queueReadErrors.Inc()
}

// AckFailed counts a failed entry deletion
func (m *Metrics) AckFailed() {
	if m == nil {
		return
	}
	m.acksFailed.Inc()
}

// typeLabel guards WithLabelValues, which panics on invalid UTF-8
func typeLabel(jobType string) string {
	if jobType == "" || !utf8.ValidString(jobType) {
		return UnknownType
	}
	return jobType
}
