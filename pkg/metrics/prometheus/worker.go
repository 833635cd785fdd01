package prometheus

import (
	"time"

	"github.com/marmos91/workersvc/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func init() {
	metrics.RegisterWorkerMetricsConstructor(NewWorkerMetrics)
	metrics.RegisterHostMetricsConstructor(NewHostMetrics)
}

// workerMetrics is the Prometheus implementation of metrics.WorkerMetrics.
type workerMetrics struct {
	iterations        prometheus.Counter
	iterationErrors   prometheus.Counter
	iterationDuration prometheus.Histogram
	notifications     *prometheus.CounterVec
}

// NewWorkerMetrics creates worker metrics registered on reg.
func NewWorkerMetrics(reg prometheus.Registerer) metrics.WorkerMetrics {
	return &workerMetrics{
		iterations: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "workersvc_worker_iterations_total",
			Help: "Total number of periodic actions performed by the worker loop",
		}),
		iterationErrors: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "workersvc_worker_iteration_errors_total",
			Help: "Total number of periodic actions that returned an error",
		}),
		iterationDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name: "workersvc_worker_iteration_duration_milliseconds",
			Help: "Duration of periodic actions in milliseconds",
			Buckets: []float64{
				0.1, // in-memory progress report
				1,
				10,
				100,
				1000,
				10000, // slow external call
			},
		}),
		notifications: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "workersvc_worker_notifications_total",
			Help: "Startup notification attempts by result",
		}, []string{"result"}), // sent, failed, skipped, disabled
	}
}

func (m *workerMetrics) ObserveIteration(duration time.Duration, err error) {
	m.iterations.Inc()
	if err != nil {
		m.iterationErrors.Inc()
	}
	m.iterationDuration.Observe(float64(duration.Microseconds()) / 1000.0)
}

func (m *workerMetrics) ObserveNotification(result string) {
	m.notifications.WithLabelValues(result).Inc()
}
