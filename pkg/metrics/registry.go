// Package metrics defines the metrics interfaces used by the worker loop and
// the service host, plus the shared Prometheus registry.
//
// Metrics are opt-in. Until InitRegistry is called every constructor in this
// package returns nil and the nil-safe helpers turn observations into no-ops,
// so instrumented code pays nothing when metrics are disabled.
//
// The Prometheus implementations live in pkg/metrics/prometheus and register
// themselves on import:
//
//	import _ "github.com/marmos91/workersvc/pkg/metrics/prometheus"
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	registryMu sync.RWMutex
	registry   *prometheus.Registry
)

// InitRegistry creates the process-wide registry with Go runtime and process
// collectors and enables metrics collection. Calling it again replaces the
// registry.
func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	registryMu.Lock()
	registry = reg
	registryMu.Unlock()

	return reg
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return registry != nil
}

// GetRegistry returns the registry, or nil when metrics are disabled.
func GetRegistry() *prometheus.Registry {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return registry
}

// Reset disables metrics and drops the registry. Intended for tests.
func Reset() {
	registryMu.Lock()
	registry = nil
	registryMu.Unlock()
}
