// Package metrics defines the Prometheus surface for the ingestion and
// session-reconstruction pipeline, modeled on the teacher's MetricsRegistry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all Prometheus metrics for vatwatch.
type Registry struct {
	// Upstream client (C1)
	UpstreamFetchesTotal  prometheus.CounterVec
	UpstreamFetchDuration prometheus.HistogramVec
	UpstreamFetchErrors   prometheus.CounterVec

	// Filter chain (C2)
	FilterProcessedTotal prometheus.CounterVec
	FilterAdmittedTotal  prometheus.CounterVec
	FilterRejectedTotal  prometheus.CounterVec

	// Memory buffer (C3)
	BufferPilotsBuffered      prometheus.Gauge
	BufferControllersBuffered prometheus.Gauge
	BufferTransceiversPending prometheus.Gauge

	// Batch writer (C4)
	FlushesTotal              prometheus.Counter
	FlushFailuresTotal        prometheus.Counter
	FlushDuration             prometheus.Histogram
	FlightsUpsertedTotal      prometheus.Counter
	ControllersUpsertedTotal  prometheus.Counter
	TransceiversInsertedTotal prometheus.Counter

	// Sector engine (C5)
	SectorEntriesTotal          prometheus.CounterVec
	SectorExitsTotal            prometheus.CounterVec
	SectorInvariantRepairsTotal prometheus.Counter
	OpenSectorIntervals         prometheus.Gauge

	// Session completion / summarization / archival (C6-C8)
	SessionsCompletedTotal prometheus.CounterVec
	SessionsMergedTotal    prometheus.CounterVec
	SummariesCreatedTotal  prometheus.CounterVec
	RecordsArchivedTotal   prometheus.CounterVec
	RecordsDeletedTotal    prometheus.CounterVec
	SummarizeCycleDuration prometheus.Histogram

	// Stale-sector cleanup
	StaleIntervalsClosedTotal prometheus.Counter

	// HTTP (dashboard API shell)
	HTTPRequestsTotal    prometheus.CounterVec
	HTTPRequestDuration  prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.GaugeVec

	// Cache
	CacheHitsTotal   prometheus.CounterVec
	CacheMissesTotal prometheus.CounterVec
}

// NewRegistry initializes and returns a new Registry with all metrics.
func NewRegistry() *Registry {
	return &Registry{
		UpstreamFetchesTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vatwatch_upstream_fetches_total",
				Help: "Total upstream HTTP fetches by endpoint and outcome",
			},
			[]string{"endpoint", "outcome"},
		),
		UpstreamFetchDuration: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vatwatch_upstream_fetch_duration_seconds",
				Help:    "Upstream fetch latency distribution in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"endpoint"},
		),
		UpstreamFetchErrors: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vatwatch_upstream_fetch_errors_total",
				Help: "Upstream fetch errors by endpoint and error kind",
			},
			[]string{"endpoint", "kind"},
		),

		FilterProcessedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vatwatch_filter_processed_total",
				Help: "Records seen by a filter stage",
			},
			[]string{"stage", "entity_type"},
		),
		FilterAdmittedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vatwatch_filter_admitted_total",
				Help: "Records admitted by a filter stage",
			},
			[]string{"stage", "entity_type"},
		),
		FilterRejectedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vatwatch_filter_rejected_total",
				Help: "Records rejected by a filter stage",
			},
			[]string{"stage", "entity_type"},
		),

		BufferPilotsBuffered: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "vatwatch_buffer_pilots_buffered",
			Help: "Pilots currently held in the memory buffer awaiting flush",
		}),
		BufferControllersBuffered: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "vatwatch_buffer_controllers_buffered",
			Help: "Controllers currently held in the memory buffer awaiting flush",
		}),
		BufferTransceiversPending: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "vatwatch_buffer_transceivers_pending",
			Help: "Transceiver samples currently pending flush",
		}),

		FlushesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vatwatch_flushes_total",
			Help: "Total batch-writer flush attempts",
		}),
		FlushFailuresTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vatwatch_flush_failures_total",
			Help: "Total batch-writer flush failures (transaction rolled back)",
		}),
		FlushDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vatwatch_flush_duration_seconds",
			Help:    "Batch-writer flush transaction duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		FlightsUpsertedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vatwatch_flights_upserted_total",
			Help: "Total flight rows upserted",
		}),
		ControllersUpsertedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vatwatch_controllers_upserted_total",
			Help: "Total controller rows upserted",
		}),
		TransceiversInsertedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vatwatch_transceivers_inserted_total",
			Help: "Total transceiver rows inserted",
		}),

		SectorEntriesTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vatwatch_sector_entries_total",
				Help: "Sector occupancy intervals opened, by sector",
			},
			[]string{"sector"},
		),
		SectorExitsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vatwatch_sector_exits_total",
				Help: "Sector occupancy intervals closed, by sector and reason",
			},
			[]string{"sector", "reason"},
		),
		SectorInvariantRepairsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vatwatch_sector_invariant_repairs_total",
			Help: "Times multiple open intervals for one callsign were self-healed",
		}),
		OpenSectorIntervals: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "vatwatch_open_sector_intervals",
			Help: "Currently open sector occupancy intervals",
		}),

		SessionsCompletedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vatwatch_sessions_completed_total",
				Help: "Sessions identified as complete, by entity type",
			},
			[]string{"entity_type"},
		),
		SessionsMergedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vatwatch_sessions_merged_total",
				Help: "Completed sessions extended by the reconnection merge rule",
			},
			[]string{"entity_type"},
		),
		SummariesCreatedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vatwatch_summaries_created_total",
				Help: "Summary rows created, by entity type",
			},
			[]string{"entity_type"},
		),
		RecordsArchivedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vatwatch_records_archived_total",
				Help: "Raw rows copied into archive tables, by entity type",
			},
			[]string{"entity_type"},
		),
		RecordsDeletedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vatwatch_records_deleted_total",
				Help: "Raw rows deleted from the live tables, by entity type",
			},
			[]string{"entity_type"},
		),
		SummarizeCycleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vatwatch_summarize_cycle_duration_seconds",
			Help:    "Duration of one completion+summarize+archive cycle",
			Buckets: []float64{0.5, 1, 5, 10, 30, 60, 120, 300, 600},
		}),

		StaleIntervalsClosedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vatwatch_stale_intervals_closed_total",
			Help: "Sector occupancy intervals closed by the stale-sector cleanup job",
		}),

		HTTPRequestsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vatwatch_http_requests_total",
				Help: "Total HTTP requests processed by endpoint, method, and status code",
			},
			[]string{"endpoint", "method", "status_code"},
		),
		HTTPRequestDuration: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vatwatch_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"endpoint", "method"},
		),
		HTTPRequestsInFlight: *promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "vatwatch_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"endpoint"},
		),

		CacheHitsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vatwatch_cache_hits_total",
				Help: "Total cache hits by cache key pattern",
			},
			[]string{"cache_key_pattern"},
		),
		CacheMissesTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vatwatch_cache_misses_total",
				Help: "Total cache misses by cache key pattern",
			},
			[]string{"cache_key_pattern"},
		),
	}
}
