// Package metrics defines and registers all custom Prometheus metrics for
// the opsboard API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics register with the default registry via promauto at package load;
// the /metrics endpoint is wired by the router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "opsboard"

// PolicyDenialsTotal counts operations rejected by the access policy.
// Labels:
//   - role: the caller's role
//   - resource: the resource kind the caller targeted
//   - action: the attempted action
var PolicyDenialsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "policy_denials_total",
		Help:      "Total number of operations rejected by the access policy.",
	},
	[]string{"role", "resource", "action"},
)

// AuthFailuresTotal counts failed login attempts. Unknown users and bad
// passwords are indistinguishable at this boundary, matching the API
// response; the service log carries the distinction.
// Label:
//   - reason: "invalid_credentials" or "error"
var AuthFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_failures_total",
		Help:      "Total number of failed login attempts.",
	},
	[]string{"reason"},
)

// CRAEntriesWrittenTotal counts committed time entries.
// Label:
//   - category: "billable", "non_billable_client", or "internal"
var CRAEntriesWrittenTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cra_entries_written_total",
		Help:      "Total number of time entries committed, by category.",
	},
	[]string{"category"},
)

// ImportBatchesTotal counts CSV import batches.
// Label:
//   - result: "imported", "replayed", or "rejected"
var ImportBatchesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "import_batches_total",
		Help:      "Total number of CRA import batches, by outcome.",
	},
	[]string{"result"},
)

// KPIQueriesTotal counts chatbot query invocations.
// Labels:
//   - query: the named query invoked
//   - result: "ok", "denied", or "error"
var KPIQueriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "kpi_queries_total",
		Help:      "Total number of KPI chatbot queries, by name and outcome.",
	},
	[]string{"query", "result"},
)

// ViewBuildDuration measures how long composing one view takes end-to-end.
// Label:
//   - kind: the view kind built
var ViewBuildDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "view_build_duration_seconds",
		Help:      "Duration of view composition from request to payload.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"kind"},
)
