package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the Prometheus collectors of one coordinator
type Metrics struct {
	// Hits counts requests answered from a completed entry
	Hits prometheus.Counter

	// Misses counts requests that found no completed entry
	Misses prometheus.Counter

	// Coalesced counts requests that shared an in-flight computation
	Coalesced prometheus.Counter

	// Computations counts computations by outcome
	Computations *prometheus.CounterVec

	// ComputeDuration tracks computation duration in seconds
	ComputeDuration prometheus.Histogram

	// Abandoned counts callers that returned before the computation finished
	Abandoned prometheus.Counter
}

// NewMetrics creates collectors labelled with the cache name and registers
// them on reg. A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer, name string) *Metrics {
	factory := promauto.With(reg)
	labels := prometheus.Labels{"cache": name}

	return &Metrics{
		Hits: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   "shelfwatch",
			Subsystem:   "cache",
			Name:        "hits_total",
			Help:        "Total number of requests served from a cached analysis",
			ConstLabels: labels,
		}),
		Misses: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   "shelfwatch",
			Subsystem:   "cache",
			Name:        "misses_total",
			Help:        "Total number of requests that found no cached analysis",
			ConstLabels: labels,
		}),
		Coalesced: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   "shelfwatch",
			Subsystem:   "cache",
			Name:        "coalesced_total",
			Help:        "Total number of requests that shared an in-flight computation",
			ConstLabels: labels,
		}),
		Computations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "shelfwatch",
			Subsystem:   "cache",
			Name:        "computations_total",
			Help:        "Total number of analysis computations by status",
			ConstLabels: labels,
		}, []string{"status"}),
		ComputeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "shelfwatch",
			Subsystem:   "cache",
			Name:        "compute_duration_seconds",
			Help:        "Duration of analysis computations in seconds",
			Buckets:     []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
			ConstLabels: labels,
		}),
		Abandoned: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   "shelfwatch",
			Subsystem:   "cache",
			Name:        "abandoned_total",
			Help:        "Total number of callers that stopped waiting for a computation",
			ConstLabels: labels,
		}),
	}
}
