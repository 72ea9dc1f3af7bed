// Package metrics defines and registers all custom Prometheus metrics for the
// auth service. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry on import via
// promauto and exposed by the /metrics route.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "auth"

// ── Request metrics ───────────────────────────────────────────────────────────

// RequestsTotal counts auth operations handled by the HTTP layer.
// Labels:
//   - operation: "register", "login", "refresh", "validate", "get_user"
//   - result: "ok" or the failure kind (e.g. "invalid_credentials", "internal")
var RequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "requests_total",
		Help:      "Total number of auth operations, by operation and result.",
	},
	[]string{"operation", "result"},
)

// RequestDuration measures the time spent inside an auth operation, including
// password hashing and directory I/O.
var RequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "request_duration_seconds",
		Help:      "Duration of auth operations.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	},
	[]string{"operation"},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuthEventsRecordedTotal counts audit events persisted successfully.
// Labels:
//   - type: "register", "login", "refresh", "validate"
//   - outcome: "success" or "failure"
var AuthEventsRecordedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_recorded_total",
		Help:      "Total number of audit events persisted.",
	},
	[]string{"type", "outcome"},
)

// AuthEventsErrorsTotal counts audit events that could not be persisted.
// Label:
//   - reason: "invalid_event", "insert_failed"
var AuthEventsErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_errors_total",
		Help:      "Total number of audit events that failed to persist.",
	},
	[]string{"reason"},
)

// AuthEventsDroppedTotal counts audit events discarded because a worker queue was full
// or the dispatcher was already closed.
var AuthEventsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_dropped_total",
		Help:      "Total number of audit events dropped before persistence.",
	},
)

// AuthEventsQueueDepth tracks the number of events waiting in each dispatcher worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var AuthEventsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "events_queue_depth",
		Help:      "Current number of audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
