// Package metrics exposes Prometheus instrumentation for MarketLens
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder holds the MarketLens metric set on its own registry, so
// multiple recorders can coexist in tests without collision.
type Recorder struct {
	registry *prometheus.Registry

	cacheHits     *prometheus.CounterVec
	cacheMisses   *prometheus.CounterVec
	scanDuration  *prometheus.HistogramVec
	opportunities *prometheus.CounterVec
	alertsFired   *prometheus.CounterVec
	scanErrors    prometheus.Counter
}

// New creates a recorder with a fresh registry.
func New() *Recorder {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Recorder{
		registry: registry,
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketlens_cache_hits_total",
				Help: "Result cache hits by computation kind",
			},
			[]string{"kind"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketlens_cache_misses_total",
				Help: "Result cache misses by computation kind",
			},
			[]string{"kind"},
		),
		scanDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marketlens_scan_duration_seconds",
				Help:    "Duration of batch scans in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"scan"},
		),
		opportunities: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketlens_opportunities_total",
				Help: "Opportunities detected by type",
			},
			[]string{"type"},
		),
		alertsFired: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketlens_alerts_total",
				Help: "Alerts fired by rule kind and severity",
			},
			[]string{"kind", "severity"},
		),
		scanErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "marketlens_scan_errors_total",
				Help: "Batch scans that failed outright",
			},
		),
	}
}

// CacheHit records a result cache hit.
func (r *Recorder) CacheHit(kind string) {
	r.cacheHits.WithLabelValues(kind).Inc()
}

// CacheMiss records a result cache miss.
func (r *Recorder) CacheMiss(kind string) {
	r.cacheMisses.WithLabelValues(kind).Inc()
}

// ObserveScanDuration records how long a batch scan took.
func (r *Recorder) ObserveScanDuration(scan string, seconds float64) {
	r.scanDuration.WithLabelValues(scan).Observe(seconds)
}

// RecordOpportunity counts one detected opportunity.
func (r *Recorder) RecordOpportunity(opportunityType string) {
	r.opportunities.WithLabelValues(opportunityType).Inc()
}

// RecordAlert counts one fired alert.
func (r *Recorder) RecordAlert(kind, severity string) {
	r.alertsFired.WithLabelValues(kind, severity).Inc()
}

// RecordScanError counts a failed batch scan.
func (r *Recorder) RecordScanError() {
	r.scanErrors.Inc()
}

// Handler returns the exposition endpoint for this recorder's registry.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
