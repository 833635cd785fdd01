package prometheus

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/workersvc/pkg/metrics"
)

func TestWorkerMetrics_ObserveIteration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWorkerMetrics(reg).(*workerMetrics)

	m.ObserveIteration(2*time.Millisecond, nil)
	m.ObserveIteration(3*time.Millisecond, nil)
	m.ObserveIteration(time.Millisecond, errors.New("boom"))

	assert.Equal(t, 3.0, testutil.ToFloat64(m.iterations))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.iterationErrors))
	assert.Equal(t, 1, testutil.CollectAndCount(m.iterationDuration))
}

func TestWorkerMetrics_ObserveNotification(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWorkerMetrics(reg).(*workerMetrics)

	m.ObserveNotification(metrics.NotificationSent)
	m.ObserveNotification(metrics.NotificationSkipped)
	m.ObserveNotification(metrics.NotificationSkipped)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifications.WithLabelValues(metrics.NotificationSent)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.notifications.WithLabelValues(metrics.NotificationSkipped)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.notifications.WithLabelValues(metrics.NotificationFailed)))
}

func TestHostMetrics_SetState(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHostMetrics(reg).(*hostMetrics)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.state.WithLabelValues("not_started")))

	m.SetState("running")
	assert.Equal(t, 0.0, testutil.ToFloat64(m.state.WithLabelValues("not_started")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.state.WithLabelValues("running")))
	assert.Equal(t, len(hostStates), testutil.CollectAndCount(m.state))
}

func TestHostMetrics_ObserveRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHostMetrics(reg).(*hostMetrics)

	m.ObserveRun("cancelled", 1500*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("cancelled")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.runs.WithLabelValues("faulted")))
}

func TestRegisteredConstructors(t *testing.T) {
	metrics.Reset()
	t.Cleanup(metrics.Reset)

	assert.Nil(t, metrics.NewWorkerMetrics(), "disabled metrics must yield nil")
	assert.Nil(t, metrics.NewHostMetrics())

	metrics.InitRegistry()
	wm := metrics.NewWorkerMetrics()
	hm := metrics.NewHostMetrics()
	require.NotNil(t, wm)
	require.NotNil(t, hm)

	wm.ObserveIteration(time.Millisecond, nil)

	families, err := metrics.GetRegistry().Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["workersvc_worker_iterations_total"])
	assert.True(t, names["workersvc_host_state"])
	assert.True(t, names["go_goroutines"])
}
