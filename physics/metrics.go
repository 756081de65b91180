package physics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments layout engines. A nil *Metrics is valid and records nothing.
type Metrics struct {
	ticks        prometheus.Counter
	tickDuration prometheus.Histogram
	pins         prometheus.Counter
	engines      prometheus.Gauge
	recoveries   prometheus.Counter
}

// NewMetrics registers the layout collectors on reg. Create one per registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ticks: f.NewCounter(prometheus.CounterOpts{
			Namespace: "liquiditymap",
			Subsystem: "layout",
			Name:      "ticks_total",
			Help:      "Simulation ticks applied across all engines.",
		}),
		tickDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "liquiditymap",
			Subsystem: "layout",
			Name:      "tick_duration_seconds",
			Help:      "Time spent applying one simulation tick.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
		pins: f.NewCounter(prometheus.CounterOpts{
			Namespace: "liquiditymap",
			Subsystem: "layout",
			Name:      "pins_total",
			Help:      "Nodes pinned by a drag.",
		}),
		engines: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "liquiditymap",
			Subsystem: "layout",
			Name:      "active_engines",
			Help:      "Background layout engines currently running.",
		}),
		recoveries: f.NewCounter(prometheus.CounterOpts{
			Namespace: "liquiditymap",
			Subsystem: "layout",
			Name:      "nonfinite_recoveries_total",
			Help:      "Positions restored after a tick produced NaN or Inf.",
		}),
	}
}

func (m *Metrics) observeTick() func() {
	if m == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		m.ticks.Inc()
		m.tickDuration.Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) pinned() {
	if m != nil {
		m.pins.Inc()
	}
}

func (m *Metrics) recovered() {
	if m != nil {
		m.recoveries.Inc()
	}
}

func (m *Metrics) engineStarted() {
	if m != nil {
		m.engines.Inc()
	}
}

func (m *Metrics) engineStopped() {
	if m != nil {
		m.engines.Dec()
	}
}
