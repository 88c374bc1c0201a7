package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	BuildDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "opsboard_build_stage_seconds",
		Help:    "Time spent in each build stage.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	AggregationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "opsboard_aggregations_total",
		Help: "Total number of aggregation runs.",
	}, []string{"mode"})

	AggregationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "opsboard_aggregation_seconds",
		Help:    "Time spent computing a single aggregated view.",
		Buckets: prometheus.DefBuckets,
	})

	RecordsLoaded = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "opsboard_records_loaded",
		Help: "Number of records currently loaded, per collection.",
	}, []string{"collection"})

	RecordsSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "opsboard_records_skipped_total",
		Help: "Total number of records rejected during load.",
	}, []string{"collection", "reason"})

	RebuildsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "opsboard_rebuilds_total",
		Help: "Total number of completed dashboard builds.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "opsboard_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	FilterChangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "opsboard_filter_changes_total",
		Help: "Total number of filter state mutations.",
	}, []string{"op"})

	ArtifactBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "opsboard_artifact_bytes",
		Help: "Size in bytes of the last written dashboard artifact.",
	})
)
