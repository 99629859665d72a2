// Package metrics defines the Prometheus collectors exported on /metrics.
//
// All recording methods are safe to call on a nil *Metrics, so components
// can be constructed without metrics in tests and tools.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "billsplit"

// Metrics holds the application's collectors.
type Metrics struct {
	rpcRequests       *prometheus.CounterVec
	rpcDuration       *prometheus.HistogramVec
	allocations       prometheus.Counter
	divergences       prometheus.Counter
	reconcileFailures *prometheus.CounterVec
	submissions       *prometheus.CounterVec
	notifications     *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		rpcRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_requests_total",
			Help:      "RPC calls by procedure and result code.",
		}, []string{"procedure", "code"}),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "RPC latency by procedure.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure"}),
		allocations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "allocations_total",
			Help:      "Bills run through the shared-cost allocator.",
		}),
		divergences: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "allocation_divergences_total",
			Help:      "Allocations whose computed total differs from the declared bill total.",
		}),
		reconcileFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_failures_total",
			Help:      "Rejected reconciliations by reason.",
		}, []string{"reason"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_submissions_total",
			Help:      "Ledger expense submissions by result.",
		}, []string{"result"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Member notifications by outcome.",
		}, []string{"state"}),
	}

	reg.MustRegister(
		m.rpcRequests,
		m.rpcDuration,
		m.allocations,
		m.divergences,
		m.reconcileFailures,
		m.submissions,
		m.notifications,
	)
	return m
}

// ObserveRPC records one RPC call.
func (m *Metrics) ObserveRPC(procedure, code string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.rpcRequests.WithLabelValues(procedure, code).Inc()
	m.rpcDuration.WithLabelValues(procedure).Observe(elapsed.Seconds())
}

// Allocated records one allocation and whether it diverged.
func (m *Metrics) Allocated(diverged bool) {
	if m == nil {
		return
	}
	m.allocations.Inc()
	if diverged {
		m.divergences.Inc()
	}
}

// ReconcileFailed records a rejected reconciliation.
func (m *Metrics) ReconcileFailed(reason string) {
	if m == nil {
		return
	}
	m.reconcileFailures.WithLabelValues(reason).Inc()
}

// Submitted records a ledger submission attempt.
func (m *Metrics) Submitted(result string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(result).Inc()
}

// Notified records a notification outcome.
func (m *Metrics) Notified(state string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(state).Inc()
}
