// file: internal/metrics/collector.go

package metrics

import (
	"context"
	"sync"
	"time"
)

// MetricsCollector periodically refreshes the process gauges
type MetricsCollector struct {
	metrics        *Metrics
	updateInterval time.Duration
	cancel         context.CancelFunc
	wg             sync.WaitGroup
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector(metrics *Metrics, updateInterval time.Duration) *MetricsCollector {
	return &MetricsCollector{
		metrics:        metrics,
		updateInterval: updateInterval,
	}
}

// Start samples once immediately, then on every interval until ctx is done
// or Stop is called
func (mc *MetricsCollector) Start(ctx context.Context) {
	ctx, mc.cancel = context.WithCancel(ctx)
	mc.metrics.UpdateSystemMetrics()

	mc.wg.Add(1)
	go mc.collect(ctx)
}

// Stop gracefully shuts down the metrics collector
func (mc *MetricsCollector) Stop() {
	if mc.cancel != nil {
		mc.cancel()
	}
	mc.wg.Wait()
}

func (mc *MetricsCollector) collect(ctx context.Context) {
	defer mc.wg.Done()

	ticker := time.NewTicker(mc.updateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			mc.metrics.UpdateSystemMetrics()
		}
	}
}
