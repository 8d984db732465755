package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "easyaudit_events_enqueued_total",
		Help: "Total number of events placed on the processing queue.",
	})

	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "easyaudit_events_dropped_total",
		Help: "Total number of events rejected due to a full queue.",
	})

	EventsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "easyaudit_events_skipped_total",
		Help: "Total number of events ignored because their name is not audited.",
	})

	EntriesEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "easyaudit_entries_emitted_total",
		Help: "Total number of audit entries emitted, labelled by record type.",
	}, []string{"type"})

	ResolveErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "easyaudit_resolve_errors_total",
		Help: "Total number of events that could not be resolved, labelled by event name.",
	}, []string{"event"})

	SinkErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "easyaudit_sink_errors_total",
		Help: "Total number of entries at least one sink failed to write.",
	})

	EventProcessingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "easyaudit_event_processing_duration_ms",
		Help:    "End-to-end event processing latency in milliseconds.",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 25, 50, 100, 250, 1000},
	})

	QueueUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "easyaudit_queue_utilization_ratio",
		Help: "Current event queue utilization (0–1).",
	})
)
