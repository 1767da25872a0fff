package redis

import "github.com/prometheus/client_golang/prometheus"

// poolMetrics mirrors db-bouncer's metrics.Collector shape but is optional:
// a nil *poolMetrics is silent, so a client library never forces metrics
// registration on a caller that doesn't want it.
type poolMetrics struct {
	active      prometheus.Gauge
	idle        prometheus.Gauge
	waiting     prometheus.Gauge
	exhausted   prometheus.Counter
	checkoutDur prometheus.Histogram
}

// NewPoolMetrics builds a poolMetrics registered under reg with the given
// label value identifying this pool (e.g. an address or cluster name).
// Pass a nil registry to skip registration while still collecting values
// locally (useful in tests).
func NewPoolMetrics(reg prometheus.Registerer, poolName string) *poolMetrics {
	labels := prometheus.Labels{"pool": poolName}
	m := &poolMetrics{
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "goredis_pool_active_connections",
			Help:        "Connections currently checked out of the pool.",
			ConstLabels: labels,
		}),
		idle: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "goredis_pool_idle_connections",
			Help:        "Connections sitting idle in the pool.",
			ConstLabels: labels,
		}),
		waiting: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "goredis_pool_waiting_checkouts",
			Help:        "Goroutines currently blocked waiting for a connection.",
			ConstLabels: labels,
		}),
		exhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "goredis_pool_exhausted_total",
			Help:        "Checkouts that had to wait because the pool was at max_pool_size.",
			ConstLabels: labels,
		}),
		checkoutDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "goredis_pool_checkout_duration_seconds",
			Help:        "Time spent waiting for Checkout to hand back a connection.",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.active, m.idle, m.waiting, m.exhausted, m.checkoutDur)
	}
	return m
}

func (m *poolMetrics) setActive(n int) {
	if m == nil {
		return
	}
	m.active.Set(float64(n))
}

func (m *poolMetrics) setIdle(n int) {
	if m == nil {
		return
	}
	m.idle.Set(float64(n))
}

func (m *poolMetrics) setWaiting(n int) {
	if m == nil {
		return
	}
	m.waiting.Set(float64(n))
}

func (m *poolMetrics) incExhausted() {
	if m == nil {
		return
	}
	m.exhausted.Inc()
}

func (m *poolMetrics) observeCheckout(seconds float64) {
	if m == nil {
		return
	}
	m.checkoutDur.Observe(seconds)
}
