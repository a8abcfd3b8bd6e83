// Package metrics exposes the capture engine's counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Capture metrics
	RecordsCaptured = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xcwatch_records_captured_total",
			Help: "Log records parsed and buffered, by capture mode",
		},
		[]string{"mode"},
	)
	RecordsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "xcwatch_records_dropped_total",
			Help: "Records evicted from a full capture buffer",
		},
	)
	LinesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "xcwatch_lines_skipped_total",
			Help: "Stream lines discarded as noise or unparseable",
		},
	)
	ObserverPanics = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "xcwatch_observer_panics_total",
			Help: "Panics recovered from record observers",
		},
	)
	WatchRuleHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xcwatch_watch_rule_hits_total",
			Help: "Records matched by a watch rule",
		},
		[]string{"rule"},
	)

	// Diagnostics metrics
	StrategyHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xcwatch_diagnostic_source_hits_total",
			Help: "Diagnostic extractions answered, by source strategy",
		},
		[]string{"strategy"},
	)
)
