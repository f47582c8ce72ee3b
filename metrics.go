package saringan

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector provides Prometheus metrics for the read-through
// lifecycle and its guarding layers. It is safe for concurrent use.
type MetricsCollector struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	fetchDuration   prometheus.Histogram
	fetchesInFlight prometheus.Gauge

	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
	cacheSize   prometheus.Gauge

	deduplicationHits prometheus.Counter

	rateLimitedTotal   prometheus.Counter
	rateLimiterClients prometheus.Gauge

	errorsTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

// Request outcome label values.
const (
	OutcomeHit      = "hit"
	OutcomeMiss     = "miss"
	OutcomeJoined   = "joined"
	OutcomeDenied   = "denied"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// NewMetricsCollector creates a metrics collector on the default registerer.
func NewMetricsCollector() *MetricsCollector {
	return NewMetricsCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsCollectorWithRegistry creates a collector using supplied registerer.
func NewMetricsCollectorWithRegistry(registry prometheus.Registerer) *MetricsCollector {
	mc := &MetricsCollector{
		requestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "saringan_requests_total",
				Help: "Total number of read-through requests by outcome",
			},
			[]string{"outcome"},
		),
		requestDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "saringan_request_duration_seconds",
				Help:    "Duration of read-through requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		fetchDuration: promauto.With(registry).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "saringan_fetch_duration_seconds",
				Help:    "Duration of backing store fetches in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		fetchesInFlight: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "saringan_fetches_in_flight",
				Help: "Number of backing store fetches currently in flight",
			},
		),
		cacheHits: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "saringan_cache_hits_total",
				Help: "Total number of cache hits",
			},
		),
		cacheMisses: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "saringan_cache_misses_total",
				Help: "Total number of cache misses",
			},
		),
		cacheSize: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "saringan_cache_size",
				Help: "Current number of entries in cache",
			},
		),
		deduplicationHits: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "saringan_deduplication_hits_total",
				Help: "Total number of requests that joined an in-flight fetch",
			},
		),
		rateLimitedTotal: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "saringan_rate_limited_total",
				Help: "Total number of requests denied by admission control",
			},
		),
		rateLimiterClients: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "saringan_rate_limiter_clients",
				Help: "Current number of clients tracked by the rate limiter",
			},
		),
		errorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "saringan_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
	}

	if reg, ok := registry.(*prometheus.Registry); ok {
		mc.registry = reg
	}

	return mc
}

// RecordRequest records request count and duration for an outcome.
func (mc *MetricsCollector) RecordRequest(outcome string, duration time.Duration) {
	if mc == nil {
		return
	}

	mc.requestsTotal.WithLabelValues(outcome).Inc()
	mc.requestDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordFetchStart increments the in-flight fetch gauge.
func (mc *MetricsCollector) RecordFetchStart() {
	if mc == nil {
		return
	}

	mc.fetchesInFlight.Inc()
}

// RecordFetchEnd decrements the in-flight fetch gauge and records duration.
func (mc *MetricsCollector) RecordFetchEnd(duration time.Duration) {
	if mc == nil {
		return
	}

	mc.fetchesInFlight.Dec()
	mc.fetchDuration.Observe(duration.Seconds())
}

// RecordCacheHit increments the cache hit counter.
func (mc *MetricsCollector) RecordCacheHit() {
	if mc == nil {
		return
	}

	mc.cacheHits.Inc()
}

// RecordCacheMiss increments the cache miss counter.
func (mc *MetricsCollector) RecordCacheMiss() {
	if mc == nil {
		return
	}

	mc.cacheMisses.Inc()
}

// RecordCacheSize sets the cache size gauge.
func (mc *MetricsCollector) RecordCacheSize(size int) {
	if mc == nil {
		return
	}

	mc.cacheSize.Set(float64(size))
}

// RecordDeduplicationHit increments the de-dup hit counter.
func (mc *MetricsCollector) RecordDeduplicationHit() {
	if mc == nil {
		return
	}

	mc.deduplicationHits.Inc()
}

// RecordRateLimited increments the denial counter.
func (mc *MetricsCollector) RecordRateLimited() {
	if mc == nil {
		return
	}

	mc.rateLimitedTotal.Inc()
}

// RecordRateLimiterClients sets the tracked-client gauge.
func (mc *MetricsCollector) RecordRateLimiterClients(count int) {
	if mc == nil {
		return
	}

	mc.rateLimiterClients.Set(float64(count))
}

// RecordError increments the error counter by type.
func (mc *MetricsCollector) RecordError(errorType string) {
	if mc == nil {
		return
	}

	mc.errorsTotal.WithLabelValues(errorType).Inc()
}

// GetRegistry exposes the underlying prometheus registry, if the collector
// was built on one.
func (mc *MetricsCollector) GetRegistry() *prometheus.Registry {
	return mc.registry
}
