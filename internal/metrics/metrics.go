package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EntriesEnqueued counts queue upserts by origin (watch, scan, cli).
	EntriesEnqueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docmonitor_entries_enqueued_total",
			Help: "Total number of files enqueued",
		},
		[]string{"origin"},
	)

	// EntriesProcessed counts per-entry outcomes.
	EntriesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docmonitor_entries_processed_total",
			Help: "Total number of queue entries processed by outcome",
		},
		[]string{"outcome"},
	)

	// ClassifierLatency tracks classifier call duration.
	ClassifierLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docmonitor_classifier_latency_seconds",
			Help:    "Classifier call latency in seconds",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120, 300},
		},
		[]string{"result"},
	)

	// SweepResults counts retry-sweep outcomes.
	SweepResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docmonitor_sweep_results_total",
			Help: "Total number of failed entries handled by the retry sweep",
		},
		[]string{"kind"},
	)

	// Notifications counts webhook deliveries.
	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docmonitor_notifications_total",
			Help: "Total number of document notifications by reason and result",
		},
		[]string{"reason", "result"},
	)

	// PluginDispatches counts plugin handler invocations.
	PluginDispatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docmonitor_plugin_dispatches_total",
			Help: "Total number of plugin dispatches by class and result",
		},
		[]string{"class_id", "result"},
	)

	// QueueDepth tracks queue rows by state, refreshed by the status API.
	QueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "docmonitor_queue_depth",
			Help: "Number of queue entries by state",
		},
		[]string{"state"},
	)
)

// Outcome labels for EntriesProcessed.
const (
	OutcomeClassified = "classified"
	OutcomeDropped    = "dropped"
	OutcomeFailed     = "failed"
	OutcomeUnstable   = "unstable"
)

// Result labels shared by the remaining vectors.
const (
	ResultOK    = "ok"
	ResultError = "error"
)
