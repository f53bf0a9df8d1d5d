// file: internal/authmgr/metrics.go

package authmgr

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics covers the publish side of the auth-publisher. Refresh command
// metrics live in internal/metrics.
type Metrics struct {
	PublishSuccessTotal  *prometheus.CounterVec
	PublishFailuresTotal *prometheus.CounterVec
	PublishDuration      *prometheus.HistogramVec
	PublishSkippedTotal  *prometheus.CounterVec
	KVStoreFailuresTotal *prometheus.CounterVec
	NATSConnectionStatus prometheus.Gauge
	NATSReconnectsTotal  prometheus.Counter
}

// NewMetrics creates a new metrics instance and registers the collectors.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		PublishSuccessTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authpub_publish_success_total",
				Help: "Total number of token records published by provider.",
			},
			[]string{"provider"},
		),
		PublishFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authpub_publish_failures_total",
				Help: "Total number of publish attempts that could not obtain a token, by provider.",
			},
			[]string{"provider"},
		),
		PublishDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "authpub_publish_duration_seconds",
				Help:    "Duration of a publish cycle (token lookup plus KV write) by provider.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
		PublishSkippedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authpub_publish_skipped_total",
				Help: "Total number of single-use tokens withheld from the shared KV bucket by provider.",
			},
			[]string{"provider"},
		),
		KVStoreFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authpub_kv_store_failures_total",
				Help: "Total number of failures to store a token record in the KV bucket by provider.",
			},
			[]string{"provider"},
		),
		NATSConnectionStatus: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "authpub_nats_connection_status",
				Help: "NATS connection status (1 = connected, 0 = disconnected).",
			},
		),
		NATSReconnectsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "authpub_nats_reconnects_total",
				Help: "Total number of NATS reconnections.",
			},
		),
	}

	collectors := []prometheus.Collector{
		m.PublishSuccessTotal,
		m.PublishFailuresTotal,
		m.PublishDuration,
		m.PublishSkippedTotal,
		m.KVStoreFailuresTotal,
		m.NATSConnectionStatus,
		m.NATSReconnectsTotal,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// IncPublishSuccess increments the counter for published records.
func (m *Metrics) IncPublishSuccess(providerID string) {
	m.PublishSuccessTotal.WithLabelValues(providerID).Inc()
}

// IncPublishFailure increments the counter for failed token lookups.
func (m *Metrics) IncPublishFailure(providerID string) {
	m.PublishFailuresTotal.WithLabelValues(providerID).Inc()
}

// ObservePublishDuration records the duration of a publish cycle.
func (m *Metrics) ObservePublishDuration(providerID string, seconds float64) {
	m.PublishDuration.WithLabelValues(providerID).Observe(seconds)
}

// IncPublishSkipped increments the counter for withheld single-use tokens.
func (m *Metrics) IncPublishSkipped(providerID string) {
	m.PublishSkippedTotal.WithLabelValues(providerID).Inc()
}

// IncKVStoreFailure increments the counter for KV store failures.
func (m *Metrics) IncKVStoreFailure(providerID string) {
	m.KVStoreFailuresTotal.WithLabelValues(providerID).Inc()
}

// SetNATSConnected records the connection state.
func (m *Metrics) SetNATSConnected(connected bool) {
	if connected {
		m.NATSConnectionStatus.Set(1)
	} else {
		m.NATSConnectionStatus.Set(0)
	}
}

// IncNATSReconnects counts a reconnection.
func (m *Metrics) IncNATSReconnects() {
	m.NATSReconnectsTotal.Inc()
}
