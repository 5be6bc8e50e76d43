// Package metrics exposes Prometheus metrics for the diagnostic daemon.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"edgeline/diagd/pkg/config"
)

// Collector owns the daemon's metric registry.
//
// Metrics:
//   - <ns>_<sub>_requests_total: request count by endpoint and status
//   - <ns>_<sub>_request_duration_seconds: request latency histogram
//   - <ns>_<sub>_snapshot_rebuild_duration_seconds: rebuild latency
//   - <ns>_<sub>_latest_generation: newest generation seen on disk
type Collector struct {
	registry *prometheus.Registry

	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	rebuildDuration  prometheus.Histogram
	latestGeneration prometheus.Gauge
}

// NewCollector creates a Collector with its own registry, including the Go
// runtime and process collectors.
func NewCollector(cfg config.MetricsConfig) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,

		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "requests_total",
				Help:      "Total number of diagnostic requests handled",
			},
			[]string{"endpoint", "status"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "request_duration_seconds",
				Help:      "Duration of diagnostic requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),

		rebuildDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "snapshot_rebuild_duration_seconds",
				Help:      "Duration of full snapshot rebuilds in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),

		latestGeneration: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "latest_generation",
				Help:      "Newest configuration generation observed on disk",
			},
		),
	}

	registry.MustRegister(
		c.requestsTotal,
		c.requestDuration,
		c.rebuildDuration,
		c.latestGeneration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// ObserveRequest records one handled request.
func (c *Collector) ObserveRequest(endpoint, status string, duration time.Duration) {
	c.requestsTotal.WithLabelValues(endpoint, status).Inc()
	c.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// ObserveRebuild records one snapshot rebuild.
func (c *Collector) ObserveRebuild(duration time.Duration) {
	c.rebuildDuration.Observe(duration.Seconds())
}

// SetLatestGeneration records the newest generation id seen.
func (c *Collector) SetLatestGeneration(id int) {
	c.latestGeneration.Set(float64(id))
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
