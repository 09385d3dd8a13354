package mosaic

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusStats is a StatsSink that exports tree counters and tick timing.
type PrometheusStats struct {
	nodes     prometheus.Gauge
	leaves    prometheus.Gauge
	depth     prometheus.Gauge
	pending   prometheus.Gauge
	meanError prometheus.Gauge
	ticks     prometheus.Counter
	tickTime  prometheus.Histogram
}

// NewPrometheusStats registers the mosaic metrics with reg. A nil reg creates
// unregistered collectors.
func NewPrometheusStats(reg prometheus.Registerer) *PrometheusStats {
	f := promauto.With(reg)
	return &PrometheusStats{
		nodes: f.NewGauge(prometheus.GaugeOpts{
			Name: "mosaic_nodes",
			Help: "Node count of the current partition (1 + 3 per split).",
		}),
		leaves: f.NewGauge(prometheus.GaugeOpts{
			Name: "mosaic_leaves",
			Help: "Leaf blocks in the current partition.",
		}),
		depth: f.NewGauge(prometheus.GaugeOpts{
			Name: "mosaic_max_depth",
			Help: "Deepest leaf depth reached.",
		}),
		pending: f.NewGauge(prometheus.GaugeOpts{
			Name: "mosaic_pending",
			Help: "Leaves queued as split candidates.",
		}),
		meanError: f.NewGauge(prometheus.GaugeOpts{
			Name: "mosaic_mean_error",
			Help: "Area-weighted mean RMS color error of the leaves.",
		}),
		ticks: f.NewCounter(prometheus.CounterOpts{
			Name: "mosaic_publishing_ticks_total",
			Help: "Ticks that changed the partition.",
		}),
		tickTime: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "mosaic_tick_duration_seconds",
			Help:    "Time spent in ticks that changed the partition.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
	}
}

// Update sets the gauges and observes the tick duration.
func (p *PrometheusStats) Update(st Stats) {
	p.nodes.Set(float64(st.NodeCount))
	p.leaves.Set(float64(st.LeafCount))
	p.depth.Set(float64(st.MaxDepth))
	p.pending.Set(float64(st.Pending))
	p.meanError.Set(st.MeanError)
	p.ticks.Inc()
	p.tickTime.Observe(st.TickDuration.Seconds())
}
