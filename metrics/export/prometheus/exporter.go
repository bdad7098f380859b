package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	authkit "github.com/pme360/authkit"
)

// Collector exposes engine counters as a single counter family labeled by
// event name. It reads a fresh snapshot on every scrape.
type Collector struct {
	engine *authkit.Engine
	desc   *prometheus.Desc
}

// NewCollector builds a collector over the engine's counters. Register it
// with prometheus.MustRegister (or a custom registry).
func NewCollector(engine *authkit.Engine) *Collector {
	return &Collector{
		engine: engine,
		desc: prometheus.NewDesc(
			"authkit_events_total",
			"Total authentication events processed, by event type.",
			[]string{"event"},
			nil,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c.engine == nil {
		return
	}
	snap := c.engine.MetricsSnapshot()
	for id := authkit.MetricID(0); id < authkit.MetricIDCount; id++ {
		ch <- prometheus.MustNewConstMetric(
			c.desc,
			prometheus.CounterValue,
			float64(snap.Get(id)),
			authkit.MetricName(id),
		)
	}
}
