package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Notification results reported to WorkerMetrics.ObserveNotification.
const (
	NotificationSent     = "sent"
	NotificationFailed   = "failed"
	NotificationSkipped  = "skipped"
	NotificationDisabled = "disabled"
)

// WorkerMetrics records worker loop activity.
type WorkerMetrics interface {
	// ObserveIteration records one periodic action and how long it took.
	ObserveIteration(duration time.Duration, err error)

	// ObserveNotification records the result of the startup notification step.
	ObserveNotification(result string)
}

// HostMetrics records service host lifecycle activity.
type HostMetrics interface {
	// SetState publishes the current lifecycle state.
	SetState(state string)

	// ObserveRun records a finished worker run by outcome.
	ObserveRun(outcome string, duration time.Duration)
}

var (
	newPrometheusWorkerMetrics func(prometheus.Registerer) WorkerMetrics
	newPrometheusHostMetrics   func(prometheus.Registerer) HostMetrics
)

// RegisterWorkerMetricsConstructor registers the Prometheus worker metrics
// constructor. Called by pkg/metrics/prometheus during package initialization.
func RegisterWorkerMetricsConstructor(constructor func(prometheus.Registerer) WorkerMetrics) {
	newPrometheusWorkerMetrics = constructor
}

// RegisterHostMetricsConstructor registers the Prometheus host metrics
// constructor. Called by pkg/metrics/prometheus during package initialization.
func RegisterHostMetricsConstructor(constructor func(prometheus.Registerer) HostMetrics) {
	newPrometheusHostMetrics = constructor
}

// NewWorkerMetrics returns Prometheus-backed worker metrics, or nil when
// metrics are disabled or no implementation has been registered.
func NewWorkerMetrics() WorkerMetrics {
	reg := GetRegistry()
	if reg == nil || newPrometheusWorkerMetrics == nil {
		return nil
	}
	return newPrometheusWorkerMetrics(reg)
}

// NewHostMetrics returns Prometheus-backed host metrics, or nil when metrics
// are disabled or no implementation has been registered.
func NewHostMetrics() HostMetrics {
	reg := GetRegistry()
	if reg == nil || newPrometheusHostMetrics == nil {
		return nil
	}
	return newPrometheusHostMetrics(reg)
}

// ObserveIteration records an iteration if m is non-nil.
func ObserveIteration(m WorkerMetrics, duration time.Duration, err error) {
	if m != nil {
		m.ObserveIteration(duration, err)
	}
}

// ObserveNotification records a notification result if m is non-nil.
func ObserveNotification(m WorkerMetrics, result string) {
	if m != nil {
		m.ObserveNotification(result)
	}
}

// SetState publishes a host state if m is non-nil.
func SetState(m HostMetrics, state string) {
	if m != nil {
		m.SetState(state)
	}
}

// ObserveRun records a finished run if m is non-nil.
func ObserveRun(m HostMetrics, outcome string, duration time.Duration) {
	if m != nil {
		m.ObserveRun(outcome, duration)
	}
}
