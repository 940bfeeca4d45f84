package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	AggregateEstimated = "estimated"
	AggregateAllocated = "allocated"
)

const (
	LinkOutcomeCreated   = "created"
	LinkOutcomeDuplicate = "duplicate"
	LinkOutcomeRejected  = "rejected"
	LinkOutcomeRemoved   = "removed"
)

// PPMPMetrics captures plan lifecycle and consistency signals.
type PPMPMetrics struct {
	transitions       *prometheus.CounterVec
	aggregateRuns     *prometheus.CounterVec
	aggregateDuration *prometheus.HistogramVec
	planLockWait      prometheus.Histogram
	disbursementLinks *prometheus.CounterVec
	auditFailures     *prometheus.CounterVec
}

var (
	ppmpMetricsOnce sync.Once
	ppmpMetrics     *PPMPMetrics
)

// PPMP returns the process-wide registry of plan metrics.
func PPMP() *PPMPMetrics {
	return PPMPWithConfig(Config{})
}

func PPMPWithConfig(cfg Config) *PPMPMetrics {
	ppmpMetricsOnce.Do(func() {
		ppmpMetrics = newPPMPMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return ppmpMetrics
}

func newPPMPMetrics(registerer prometheus.Registerer, cfg Config) *PPMPMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	constLabels := prometheus.Labels{
		"service": labelOrDefault(cfg.ServiceName, "ppmp"),
		"env":     labelOrDefault(cfg.Environment, "unknown"),
	}

	m := &PPMPMetrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "ppmp_status_transitions_total",
			Help:        "Plan status transitions by source and target status.",
			ConstLabels: constLabels,
		}, []string{"from", "to"}),
		aggregateRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "ppmp_aggregate_recomputes_total",
			Help:        "Plan total recomputations by aggregate kind.",
			ConstLabels: constLabels,
		}, []string{"kind"}),
		aggregateDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "ppmp_aggregate_recompute_duration_seconds",
			Help:        "Time spent summing children and writing the plan total.",
			Buckets:     []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			ConstLabels: constLabels,
		}, []string{"kind"}),
		planLockWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "ppmp_plan_lock_wait_seconds",
			Help:        "Wait time for the plan row lock taken by child mutations.",
			Buckets:     []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			ConstLabels: constLabels,
		}),
		disbursementLinks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "ppmp_disbursement_links_total",
			Help:        "Disbursement link operations by outcome.",
			ConstLabels: constLabels,
		}, []string{"outcome"}),
		auditFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "ppmp_audit_write_failures_total",
			Help:        "Audit entries that could not be written after commit.",
			ConstLabels: constLabels,
		}, []string{"action"}),
	}

	registerer.MustRegister(
		m.transitions,
		m.aggregateRuns,
		m.aggregateDuration,
		m.planLockWait,
		m.disbursementLinks,
		m.auditFailures,
	)
	return m
}

func (m *PPMPMetrics) RecordTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(strings.TrimSpace(from), strings.TrimSpace(to)).Inc()
}

func (m *PPMPMetrics) ObserveAggregate(kind string, duration time.Duration) {
	if m == nil {
		return
	}
	m.aggregateRuns.WithLabelValues(kind).Inc()
	m.aggregateDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

func (m *PPMPMetrics) ObservePlanLockWait(duration time.Duration) {
	if m == nil {
		return
	}
	m.planLockWait.Observe(duration.Seconds())
}

func (m *PPMPMetrics) RecordDisbursementLink(outcome string) {
	if m == nil {
		return
	}
	m.disbursementLinks.WithLabelValues(outcome).Inc()
}

func (m *PPMPMetrics) RecordAuditFailure(action string) {
	if m == nil {
		return
	}
	m.auditFailures.WithLabelValues(strings.TrimSpace(action)).Inc()
}

func labelOrDefault(value, def string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return def
	}
	return value
}
