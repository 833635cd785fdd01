package prometheus

import (
	"time"

	"github.com/marmos91/workersvc/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// hostStates lists every state label so that exactly one series reads 1.
var hostStates = []string{"not_started", "starting", "running", "stop_requested", "stopped"}

// hostMetrics is the Prometheus implementation of metrics.HostMetrics.
type hostMetrics struct {
	state       *prometheus.GaugeVec
	runs        *prometheus.CounterVec
	runDuration prometheus.Histogram
}

// NewHostMetrics creates host metrics registered on reg.
func NewHostMetrics(reg prometheus.Registerer) metrics.HostMetrics {
	m := &hostMetrics{
		state: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "workersvc_host_state",
			Help: "Current service host lifecycle state (1 for the active state)",
		}, []string{"state"}),
		runs: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "workersvc_host_runs_total",
			Help: "Finished worker runs by outcome",
		}, []string{"outcome"}), // completed, cancelled, faulted
		runDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "workersvc_host_run_duration_seconds",
			Help:    "Wall-clock duration of worker runs in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10), // 1s .. ~3d
		}),
	}
	m.SetState("not_started")
	return m
}

func (m *hostMetrics) SetState(state string) {
	for _, s := range hostStates {
		value := 0.0
		if s == state {
			value = 1
		}
		m.state.WithLabelValues(s).Set(value)
	}
}

func (m *hostMetrics) ObserveRun(outcome string, duration time.Duration) {
	m.runs.WithLabelValues(outcome).Inc()
	m.runDuration.Observe(duration.Seconds())
}
