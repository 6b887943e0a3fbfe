package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics stores the Prometheus collectors shared across the connector.
type Metrics struct {
	RemoteCalls        *prometheus.CounterVec
	RemoteLatency      *prometheus.HistogramVec
	CacheHits          *prometheus.CounterVec
	CacheMisses        *prometheus.CounterVec
	EnrichmentOutcomes *prometheus.CounterVec
	FeePersistFailures prometheus.Counter
}

var (
	regOnce         sync.Once
	metricsInstance *Metrics
)

// Registry builds and registers the metrics singleton with optional namespace.
func Registry(namespace string) *Metrics {
	regOnce.Do(func() {
		metricsInstance = &Metrics{
			RemoteCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "remote_calls_total",
				Help:      "Trading API calls by call name and outcome.",
			}, []string{"call", "status"}),
			RemoteLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "remote_call_duration_seconds",
				Help:      "Latency distribution for Trading API calls.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"call"}),
			CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Cache hits by operation.",
			}, []string{"operation"}),
			CacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_misses_total",
				Help:      "Cache misses by operation.",
			}, []string{"operation"}),
			EnrichmentOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "enrichment_outcomes_total",
				Help:      "Batch enrichment results by terminal status.",
			}, []string{"status"}),
			FeePersistFailures: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fee_persist_failures_total",
				Help:      "Fee schedule upserts that failed without failing the fetch.",
			}),
		}

		prometheus.MustRegister(
			metricsInstance.RemoteCalls,
			metricsInstance.RemoteLatency,
			metricsInstance.CacheHits,
			metricsInstance.CacheMisses,
			metricsInstance.EnrichmentOutcomes,
			metricsInstance.FeePersistFailures,
		)
	})
	return metricsInstance
}
