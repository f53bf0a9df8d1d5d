// file: internal/metrics/metrics.go

package metrics

import (
	"net/http"
	"runtime"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Refresh results used as the "result" label
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Metrics provides centralized metrics collection for credential providers
type Metrics struct {
	registry *prometheus.Registry

	// Credential provider metrics
	refreshesTotal     *prometheus.CounterVec
	refreshDuration    *prometheus.HistogramVec
	cacheHitsTotal     *prometheus.CounterVec
	headersIssuedTotal *prometheus.CounterVec
	tokenExpiry        *prometheus.GaugeVec

	// System metrics
	goroutines  prometheus.Gauge
	memoryBytes prometheus.Gauge

	// Internal counters for atomic operations
	stats struct {
		refreshes      uint64
		refreshFailure uint64
	}
}

// NewMetrics creates a new metrics instance with all collectors registered
func NewMetrics(registry *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{
		registry: registry,

		refreshesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credential_refreshes_total",
				Help: "Total number of refresh command invocations by provider and result",
			},
			[]string{"provider", "result"},
		),
		refreshDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "credential_refresh_duration_seconds",
				Help:    "Duration of refresh command invocations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
		cacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credential_cache_hits_total",
				Help: "Total number of accesses served from the cached token",
			},
			[]string{"provider"},
		),
		headersIssuedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credential_headers_issued_total",
				Help: "Total number of Authorization headers produced",
			},
			[]string{"provider"},
		),
		tokenExpiry: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "credential_token_expiry_timestamp_seconds",
				Help: "Unix time at which the cached token expires (0 = never)",
			},
			[]string{"provider"},
		),

		goroutines: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "process_goroutines",
				Help: "Number of goroutines",
			},
		),
		memoryBytes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "process_memory_bytes",
				Help: "Process memory usage in bytes",
			},
		),
	}

	collectors := []prometheus.Collector{
		m.refreshesTotal,
		m.refreshDuration,
		m.cacheHitsTotal,
		m.headersIssuedTotal,
		m.tokenExpiry,
		m.goroutines,
		m.memoryBytes,
	}

	for _, collector := range collectors {
		if err := registry.Register(collector); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// IncRefresh counts a refresh attempt
func (m *Metrics) IncRefresh(provider, result string) {
	m.refreshesTotal.WithLabelValues(provider, result).Inc()
	atomic.AddUint64(&m.stats.refreshes, 1)
	if result == ResultError {
		atomic.AddUint64(&m.stats.refreshFailure, 1)
	}
}

func (m *Metrics) ObserveRefreshDuration(provider string, seconds float64) {
	m.refreshDuration.WithLabelValues(provider).Observe(seconds)
}

func (m *Metrics) IncCacheHit(provider string) {
	m.cacheHitsTotal.WithLabelValues(provider).Inc()
}

func (m *Metrics) IncHeadersIssued(provider string) {
	m.headersIssuedTotal.WithLabelValues(provider).Inc()
}

// SetTokenExpiry records when the cached token expires; pass 0 for tokens
// that never expire
func (m *Metrics) SetTokenExpiry(provider string, unixSeconds float64) {
	m.tokenExpiry.WithLabelValues(provider).Set(unixSeconds)
}

// System metrics
func (m *Metrics) UpdateSystemMetrics() {
	m.goroutines.Set(float64(runtime.NumGoroutine()))

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	m.memoryBytes.Set(float64(memStats.Alloc))
}

// GetStats returns current statistics
func (m *Metrics) GetStats() (refreshes, failures uint64) {
	return atomic.LoadUint64(&m.stats.refreshes),
		atomic.LoadUint64(&m.stats.refreshFailure)
}
