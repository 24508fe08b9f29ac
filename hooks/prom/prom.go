// Package promhook exports cache events as Prometheus metrics.
package promhook

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/unkn0wn-root/cqlmap"
)

// Hooks holds the cache metrics.
type Hooks struct {
	CompiledTotal   *prometheus.CounterVec
	CompileFailures *prometheus.CounterVec
	CompileDuration *prometheus.HistogramVec

	DynamicSize     prometheus.Gauge
	DynamicCapacity prometheus.Gauge
	DynamicHits     prometheus.Gauge
	DynamicMisses   prometheus.Gauge

	Evictions     *prometheus.CounterVec
	PressureTotal prometheus.Counter
}

var _ cqlmap.Hooks = (*Hooks)(nil)

// New registers the metrics with reg; a nil reg uses the default registerer.
func New(reg prometheus.Registerer, namespace string) *Hooks {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "cqlmap"
	}
	f := promauto.With(reg)
	return &Hooks{
		CompiledTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "statements_compiled_total",
				Help:      "Total number of statements compiled",
			},
			[]string{"tier"},
		),

		CompileFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "statement_compile_failures_total",
				Help:      "Total number of failed statement compilations",
			},
			[]string{"tier"},
		),

		CompileDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "statement_compile_duration_seconds",
				Help:      "Duration of statement compilation",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"tier"},
		),

		DynamicSize: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dynamic_statements",
			Help:      "Current number of dynamic statements",
		}),

		DynamicCapacity: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dynamic_capacity",
			Help:      "Bound of the dynamic statement tier",
		}),

		DynamicHits: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dynamic_hits",
			Help:      "Dynamic lookups answered without compiling, as last reported",
		}),

		DynamicMisses: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dynamic_misses",
			Help:      "Dynamic lookups that compiled, as last reported",
		}),

		Evictions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dynamic_evictions_total",
				Help:      "Total number of dynamic statements evicted",
			},
			[]string{"operation"},
		),

		PressureTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capacity_pressure_total",
			Help:      "Insertions that left dynamic occupancy above the pressure threshold",
		}),
	}
}

func (h *Hooks) Compiled(tier cqlmap.Tier, _ string, took time.Duration) {
	h.CompiledTotal.WithLabelValues(tier.String()).Inc()
	h.CompileDuration.WithLabelValues(tier.String()).Observe(took.Seconds())
}

func (h *Hooks) CompileFailed(tier cqlmap.Tier, _ string, _ error) {
	h.CompileFailures.WithLabelValues(tier.String()).Inc()
}

func (h *Hooks) DynamicStats(s cqlmap.Stats) {
	h.DynamicSize.Set(float64(s.Size))
	h.DynamicCapacity.Set(float64(s.Capacity))
	h.DynamicHits.Set(float64(s.Hits))
	h.DynamicMisses.Set(float64(s.Misses))
}

func (h *Hooks) CapacityPressure(s cqlmap.Stats) {
	h.PressureTotal.Inc()
	h.DynamicSize.Set(float64(s.Size))
}

// Evicted labels by operation; keys that do not parse count as "unknown".
func (h *Hooks) Evicted(key string) {
	op := "unknown"
	if sk, err := cqlmap.ParseFingerprint(key); err == nil {
		op = string(sk.Operation)
	}
	h.Evictions.WithLabelValues(op).Inc()
}
