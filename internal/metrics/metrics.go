// Package metrics holds the Prometheus collectors for the vidnest backend.
// Collectors are created at package init so instrumented code never sees a
// nil collector; Register exposes them on the default registry.
package metrics

import (
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vidnest_api_request_duration_seconds",
			Help:    "HTTP request duration in seconds, by endpoint and method.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	RequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vidnest_requests_in_flight",
			Help: "Number of HTTP requests currently being served.",
		},
	)

	PipelineDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vidnest_pipeline_duration_seconds",
			Help:    "Duration of view pipeline executions, by pipeline name.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"pipeline"},
	)

	TogglesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidnest_toggles_total",
			Help: "Relationship toggles, by kind and outcome.",
		},
		[]string{"kind", "result"},
	)

	CascadeDeletes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidnest_cascade_deleted_total",
			Help: "Documents removed by cascading deletes, by collection.",
		},
		[]string{"collection"},
	)

	OrphansRemoved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidnest_orphans_removed_total",
			Help: "Dangling documents removed by the orphan sweeper, by collection.",
		},
		[]string{"collection"},
	)

	CacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vidnest_cache_hits_total",
			Help: "Total Redis cache hits.",
		},
	)

	CacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vidnest_cache_misses_total",
			Help: "Total Redis cache misses.",
		},
	)

	UpstreamRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidnest_upstream_retries_total",
			Help: "Retried upstream calls, by target.",
		},
		[]string{"target"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vidnest_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open).",
		},
		[]string{"name"},
	)
)

var registerOnce sync.Once

// Register adds all collectors to the default registry. Pool gauges are
// registered only when a Postgres pool is in use. Safe to call more than once.
func Register(pool *pgxpool.Pool) {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestDuration,
			RequestsInFlight,
			PipelineDuration,
			TogglesTotal,
			CascadeDeletes,
			OrphansRemoved,
			CacheHits,
			CacheMisses,
			UpstreamRetries,
			CircuitBreakerState,
		)

		if pool == nil {
			return
		}
		prometheus.MustRegister(
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "vidnest_db_connection_pool_active",
					Help: "Number of active database connections.",
				},
				func() float64 { return float64(pool.Stat().AcquiredConns()) },
			),
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "vidnest_db_connection_pool_idle",
					Help: "Number of idle database connections.",
				},
				func() float64 { return float64(pool.Stat().IdleConns()) },
			),
		)
	})
}
