// Package metrics holds the prometheus collectors of the back office. Every
// recorder is nil-safe so handlers and jobs can run without a registry in tests.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "backoffice"

// Assignment outcomes.
const (
	OutcomeAssigned        = "assigned"
	OutcomeNoEligibleAgent = "no_eligible_agent"
	OutcomeAlreadyAssigned = "already_assigned"
	OutcomeOrderNotFound   = "order_not_found"
	OutcomeOrderResolved   = "order_resolved"
	OutcomeError           = "error"
)

// AssignmentMetrics counts assignment attempts by outcome.
type AssignmentMetrics struct {
	attempts *prometheus.CounterVec
	duration prometheus.Histogram
	retries  prometheus.Counter
}

func NewAssignmentMetrics(reg prometheus.Registerer) *AssignmentMetrics {
	if reg == nil {
		return &AssignmentMetrics{}
	}
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "assignments_total",
		Help:      "Order assignment attempts by outcome.",
	}, []string{"outcome"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "assignment_duration_seconds",
		Help:      "Duration of a single order assignment.",
		Buckets:   prometheus.DefBuckets,
	})
	retries := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "assignment_retries_total",
		Help:      "Assignment transactions retried after a deadlock or serialization failure.",
	})
	reg.MustRegister(attempts, duration, retries)
	return &AssignmentMetrics{attempts: attempts, duration: duration, retries: retries}
}

func (m *AssignmentMetrics) Observe(outcome string, d time.Duration) {
	if m == nil || m.attempts == nil {
		return
	}
	m.attempts.WithLabelValues(normalizeLabel(outcome)).Inc()
	m.duration.Observe(d.Seconds())
}

func (m *AssignmentMetrics) IncRetry() {
	if m == nil || m.retries == nil {
		return
	}
	m.retries.Inc()
}

// Sync results.
const (
	SyncUpdated               = "updated"
	SyncUnchanged             = "unchanged"
	SyncNotFound              = "not_found"
	SyncError                 = "error"
	SyncSkippedForeignAccount = "skipped_foreign_account"
)

// Sync run outcomes.
const (
	RunCompleted   = "completed"
	RunInterrupted = "interrupted"
	RunFailed      = "failed"
)

// SyncMetrics counts orders touched by tracking synchronization.
type SyncMetrics struct {
	orders *prometheus.CounterVec
	runs   *prometheus.CounterVec
}

func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	orders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tracking_sync_orders_total",
		Help:      "Orders handled by tracking synchronization by result.",
	}, []string{"result"})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tracking_sync_runs_total",
		Help:      "Tracking synchronization runs by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(orders, runs)
	return &SyncMetrics{orders: orders, runs: runs}
}

func (m *SyncMetrics) AddOrders(result string, n int) {
	if m == nil || m.orders == nil || n <= 0 {
		return
	}
	m.orders.WithLabelValues(normalizeLabel(result)).Add(float64(n))
}

func (m *SyncMetrics) IncRun(outcome string) {
	if m == nil || m.runs == nil {
		return
	}
	m.runs.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ProviderMetrics records outbound calls to delivery providers and the order source.
type ProviderMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewProviderMetrics(reg prometheus.Registerer) *ProviderMetrics {
	if reg == nil {
		return &ProviderMetrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provider_requests_total",
		Help:      "Outbound provider HTTP requests by provider and status class.",
	}, []string{"provider", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "provider_request_duration_seconds",
		Help:      "Duration of outbound provider HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"provider"})
	reg.MustRegister(requests, duration)
	return &ProviderMetrics{requests: requests, duration: duration}
}

func (m *ProviderMetrics) Observe(provider, status string, d time.Duration) {
	if m == nil || m.requests == nil {
		return
	}
	m.requests.WithLabelValues(normalizeLabel(provider), normalizeLabel(status)).Inc()
	m.duration.WithLabelValues(normalizeLabel(provider)).Observe(d.Seconds())
}

// WebhookMetrics counts inbound webhook deliveries by final status.
type WebhookMetrics struct {
	events *prometheus.CounterVec
}

func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "webhook_events_total",
		Help:      "Inbound webhook deliveries by source and status.",
	}, []string{"source", "status"})
	reg.MustRegister(events)
	return &WebhookMetrics{events: events}
}

func (m *WebhookMetrics) Inc(source, status string) {
	if m == nil || m.events == nil {
		return
	}
	m.events.WithLabelValues(normalizeLabel(source), normalizeLabel(status)).Inc()
}

// JobMetrics records scheduled job runs.
type JobMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	skipped  *prometheus.CounterVec
}

func NewJobMetrics(reg prometheus.Registerer) *JobMetrics {
	if reg == nil {
		return &JobMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "job_duration_seconds",
		Help:      "Duration of scheduled jobs in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"job"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "job_success_total",
		Help:      "Successful scheduled job executions.",
	}, []string{"job"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "job_failure_total",
		Help:      "Failed scheduled job executions.",
	}, []string{"job"})
	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "job_skipped_total",
		Help:      "Scheduled job executions skipped because another run held the lock.",
	}, []string{"job"})
	reg.MustRegister(duration, success, failure, skipped)
	return &JobMetrics{duration: duration, success: success, failure: failure, skipped: skipped}
}

// ObserveRun records one finished run; err decides success or failure.
func (m *JobMetrics) ObserveRun(job string, d time.Duration, err error) {
	if m == nil || m.duration == nil {
		return
	}
	job = normalizeLabel(job)
	m.duration.WithLabelValues(job).Observe(d.Seconds())
	if err != nil {
		m.failure.WithLabelValues(job).Inc()
		return
	}
	m.success.WithLabelValues(job).Inc()
}

func (m *JobMetrics) IncSkipped(job string) {
	if m == nil || m.skipped == nil {
		return
	}
	m.skipped.WithLabelValues(normalizeLabel(job)).Inc()
}

// Registry bundles every collector group.
type Registry struct {
	Assignment *AssignmentMetrics
	Sync       *SyncMetrics
	Provider   *ProviderMetrics
	Webhook    *WebhookMetrics
	Job        *JobMetrics
}

// NewRegistry registers all collectors on reg. A nil reg yields no-op recorders.
func NewRegistry(reg prometheus.Registerer) Registry {
	return Registry{
		Assignment: NewAssignmentMetrics(reg),
		Sync:       NewSyncMetrics(reg),
		Provider:   NewProviderMetrics(reg),
		Webhook:    NewWebhookMetrics(reg),
		Job:        NewJobMetrics(reg),
	}
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
