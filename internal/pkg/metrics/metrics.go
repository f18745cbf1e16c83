// Package metrics defines and registers all custom Prometheus metrics for the
// publishing API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry at init time via
// promauto and exposed on /metrics by the router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "publishing"

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditEntriesTotal counts audit entries by outcome.
// Label:
//   - result: "queued", "dropped" (queue full), "written" or "failed" (store error)
var AuditEntriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_entries_total",
		Help:      "Total number of audit entries, labelled by outcome.",
	},
	[]string{"result"},
)

// AuditQueueDepth tracks the current number of entries waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit entries pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// AuditWriteDuration measures how long persisting a single entry takes.
var AuditWriteDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "audit_write_duration_seconds",
		Help:      "Duration of a single audit entry insert.",
		Buckets:   prometheus.DefBuckets,
	},
)

// ── Article metrics ───────────────────────────────────────────────────────────

// ArticleTransitionsTotal counts committed article mutations.
// Label:
//   - action: "create", "edit", "publish", "unpublish" or "delete"
var ArticleTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "article_transitions_total",
		Help:      "Total number of committed article mutations, by action.",
	},
	[]string{"action"},
)

// ArticleViewsTotal counts views of published articles.
var ArticleViewsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "article_views_total",
		Help:      "Total number of counted views of published articles.",
	},
)

// ── Engagement metrics ────────────────────────────────────────────────────────

// LikeTogglesTotal counts like toggles.
// Label:
//   - result: "liked", "unliked" or "replayed" (absorbed by the toggle guard)
var LikeTogglesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "like_toggles_total",
		Help:      "Total number of like toggles, labelled by result.",
	},
	[]string{"result"},
)

// LikeGuardErrorsTotal counts toggle guard failures that were bypassed.
var LikeGuardErrorsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "like_guard_errors_total",
		Help:      "Total number of like toggle guard errors (guard failed open).",
	},
)

// ReviewsTotal counts committed review mutations.
// Label:
//   - action: "create", "update" or "delete"
var ReviewsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reviews_total",
		Help:      "Total number of committed review mutations, by action.",
	},
	[]string{"action"},
)

// ── HTTP metrics ──────────────────────────────────────────────────────────────

// HTTPRequestDuration measures request latency.
// Labels:
//   - method: HTTP method
//   - route: registered route pattern (e.g. "/api/articles/:id")
//   - status: response status code
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests, by method, route and status.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route", "status"},
)
