package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "uptime"

type promMetrics struct {
	registry      *prometheus.Registry
	probes        *prometheus.CounterVec
	failures      *prometheus.CounterVec
	alerts        *prometheus.CounterVec
	rotations     *prometheus.CounterVec
	cycleDuration prometheus.Histogram
	probeLatency  prometheus.Histogram
}

// newPromMetrics registers on a fresh registry so several collectors can
// coexist in one process (tests, mostly).
func newPromMetrics() *promMetrics {
	m := &promMetrics{
		registry: prometheus.NewRegistry(),
		probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checks_probed_total",
			Help:      "Checks probed, by resulting state.",
		}, []string{"state"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "check_failures_total",
			Help:      "Check chains that stopped early, by pipeline stage.",
		}, []string{"stage"}),
		alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_total",
			Help:      "State-change alerts, by delivery result.",
		}, []string{"result"}),
		rotations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "log_rotations_total",
			Help:      "Log rotations, by result.",
		}, []string{"result"}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "monitor_cycle_duration_seconds",
			Help:      "Wall time of a full monitoring cycle.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		probeLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "check_probe_duration_seconds",
			Help:      "Latency of individual probes.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	m.registry.MustRegister(
		m.probes,
		m.failures,
		m.alerts,
		m.rotations,
		m.cycleDuration,
		m.probeLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}
