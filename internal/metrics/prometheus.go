package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the digest service

var (
	// API call metrics
	APICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_api_calls_total",
			Help: "Total number of stats provider API calls",
		},
		[]string{"endpoint", "status"},
	)

	APICallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "digest_api_call_duration_seconds",
			Help:    "Duration of stats provider API calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	RetryAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_retry_attempts_total",
			Help: "Total number of retried transient failures",
		},
		[]string{"operation"},
	)

	// Collection metrics
	GamesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "digest_games_processed_total",
			Help: "Total number of games whose box scores were processed",
		},
	)

	GamesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "digest_games_skipped_total",
			Help: "Total number of games skipped after exhausted retries",
		},
	)

	StatLinesCollected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "digest_stat_lines_collected_total",
			Help: "Total number of normalized stat lines collected",
		},
	)

	PlayersTracked = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "digest_players_tracked",
			Help: "Number of tracked players in the current run",
		},
	)

	// School-lookup cache metrics
	SchoolCacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "digest_school_cache_hits_total",
			Help: "Total number of school lookups served from cache",
		},
	)

	SchoolCacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "digest_school_cache_misses_total",
			Help: "Total number of school lookups that hit the provider",
		},
	)

	// Delivery metrics
	ReportsDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_reports_delivered_total",
			Help: "Total number of delivered reports by outcome",
		},
		[]string{"outcome"},
	)

	// Archive metrics
	ArchiveWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_archive_writes_total",
			Help: "Total number of stat-line archive writes",
		},
		[]string{"status"},
	)

	// System metrics
	SystemUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "digest_system_uptime_seconds",
			Help: "System uptime in seconds",
		},
	)

	LastSuccessfulRun = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "digest_last_successful_run_timestamp",
			Help: "Timestamp of the last successful digest run",
		},
	)
)

// RecordAPICall records an API call metric
func RecordAPICall(endpoint, status string, duration float64) {
	APICallsTotal.WithLabelValues(endpoint, status).Inc()
	APICallDuration.WithLabelValues(endpoint).Observe(duration)
}

// RecordRetry records a retried transient failure
func RecordRetry(operation string) {
	RetryAttemptsTotal.WithLabelValues(operation).Inc()
}

// RecordSchoolCacheHit records a school lookup served from cache
func RecordSchoolCacheHit() {
	SchoolCacheHitsTotal.Inc()
}

// RecordSchoolCacheMiss records a school lookup that hit the provider
func RecordSchoolCacheMiss() {
	SchoolCacheMissesTotal.Inc()
}

// RecordDelivery records a delivered report by outcome
func RecordDelivery(outcome string) {
	ReportsDelivered.WithLabelValues(outcome).Inc()
}

// RecordArchiveWrite records a stat-line archive write
func RecordArchiveWrite(status string) {
	ArchiveWritesTotal.WithLabelValues(status).Inc()
}
