// Package metrics defines the Prometheus collectors for the server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collectors for preview builds and tool execution.
var (
	BuildsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reacthub_builds_total",
		Help: "Cumulative number of preview builds attempted.",
	})
	BuildFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reacthub_build_failures_total",
		Help: "Cumulative number of preview builds that failed.",
	})
	BuildDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "reacthub_build_duration_seconds",
		Help:    "Preview build duration.",
		Buckets: prometheus.DefBuckets,
	})
	UnresolvedImportsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reacthub_unresolved_imports_total",
		Help: "Cumulative number of unresolved-import diagnostics emitted.",
	})
	ToolCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reacthub_tool_calls_total",
		Help: "Cumulative number of tool calls executed, by tool and outcome.",
	}, []string{"tool", "outcome"})
)

// Outcome label values.
const (
	Ok   = "ok"
	Fail = "fail"
)
