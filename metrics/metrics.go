// Package metrics exposes Prometheus counters for the event pipeline.
// Hot-path drops and suppressions are counted here instead of logged.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingest counters
	SnapshotsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "market_snapshots_ingested_total",
		Help: "Normalized ticker snapshots accepted from the upstream feed",
	})
	SnapshotsInvalid = promauto.NewCounter(prometheus.CounterOpts{
		Name: "market_snapshots_invalid_total",
		Help: "Snapshots dropped for missing symbol or non-positive price",
	})
	SnapshotsOutOfOrder = promauto.NewCounter(prometheus.CounterOpts{
		Name: "market_snapshots_out_of_order_total",
		Help: "Snapshots dropped for carrying a timestamp older than the cached state",
	})
	SnapshotsRefused = promauto.NewCounter(prometheus.CounterOpts{
		Name: "market_snapshots_refused_total",
		Help: "Snapshots refused because the symbol arena is at capacity",
	})
	EngineQueueDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "market_engine_queue_dropped_total",
		Help: "Snapshots dropped because a worker shard queue was full",
	})

	// Detection counters
	DetectorErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "market_detector_errors_total",
		Help: "Detector evaluations that panicked and were isolated",
	}, []string{"rule"})
	EventsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "market_events_emitted_total",
		Help: "Events that survived deduplication and cooldown",
	}, []string{"type"})
	EventsDeduplicated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "market_events_deduplicated_total",
		Help: "Events suppressed by the per-bucket duplicate window",
	})
	EventsCooldownSuppressed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "market_events_cooldown_suppressed_total",
		Help: "Events suppressed by a per-rule cooldown",
	})

	// Fan-out counters
	BroadcastDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "market_broadcast_dropped_total",
		Help: "Events dropped at the in-process broadcast bus",
	})
	StreamPublishDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "market_stream_publish_dropped_total",
		Help: "Events dropped because the stream publish queue was full",
	})
	StreamPublishErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "market_stream_publish_errors_total",
		Help: "Failed XADD calls onto the market event stream",
	})

	// Writer counters
	WriterBuffered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "market_writer_buffered_total",
		Help: "Event rows accepted into the writer buffer",
	})
	WriterDroppedOldest = promauto.NewCounter(prometheus.CounterOpts{
		Name: "market_writer_dropped_oldest_total",
		Help: "Oldest rows evicted from the writer buffer on overflow",
	})
	WriterInserted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "market_writer_inserted_total",
		Help: "Event rows persisted to the hypertable",
	})
	WriterInsertFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "market_writer_insert_failures_total",
		Help: "Batches dropped because the insert failed",
	})

	// Trigger counters
	TriggerMatches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "market_trigger_matches_total",
		Help: "Events matched by an active user trigger",
	})
	TriggerAlerts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "market_trigger_alerts_total",
		Help: "Alert records published onto per-user alert streams",
	})
	TriggerWorkflows = promauto.NewCounter(prometheus.CounterOpts{
		Name: "market_trigger_workflows_total",
		Help: "Workflow invocations dispatched to the orchestrator",
	})
	TriggerDispatchErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "market_trigger_dispatch_errors_total",
		Help: "Trigger dispatches that failed and were swallowed",
	})

	// Cache gauges
	CacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "market_state_cache_size",
		Help: "Symbols currently held in the ticker state cache",
	})
	CacheEvicted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "market_state_cache_evicted_total",
		Help: "Stale symbols removed by the cache sweep",
	})
)
