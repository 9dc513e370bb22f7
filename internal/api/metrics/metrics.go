// Package metrics defines and registers all custom Prometheus metrics for the
// inventory API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics register with the default Prometheus registry at package init; the
// router exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "inventory"

// ── Cache metrics ─────────────────────────────────────────────────────────────

// CacheRequestsTotal counts cache-aside lookups.
// Labels:
//   - scope: "list" (aggregate key) or "item" (single product key)
//   - result: "hit" or "miss" (cache transport failures count as misses)
var CacheRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_requests_total",
		Help:      "Total number of product cache lookups, labelled by scope and result.",
	},
	[]string{"scope", "result"},
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - result: "success" or "failure"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, labelled by result.",
	},
	[]string{"result"},
)

// RegistrationsTotal counts completed registrations.
// Label:
//   - role: the role assigned to the new account
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of user registrations, labelled by assigned role.",
	},
	[]string{"role"},
)

// ── Product metrics ───────────────────────────────────────────────────────────

// ProductWritesTotal counts product mutations that reached the store.
// Label:
//   - op: "create", "update", or "delete"
var ProductWritesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "product_writes_total",
		Help:      "Total number of product mutations persisted, labelled by operation.",
	},
	[]string{"op"},
)

// MailsEnqueuedTotal counts confirmation mails handed to the dispatcher.
var MailsEnqueuedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mails_enqueued_total",
		Help:      "Total number of confirmation mails enqueued for delivery.",
	},
)
