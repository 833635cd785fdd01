package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWorkerMetrics struct {
	iterations    int
	errs          int
	notifications []string
}

func (f *fakeWorkerMetrics) ObserveIteration(_ time.Duration, err error) {
	f.iterations++
	if err != nil {
		f.errs++
	}
}

func (f *fakeWorkerMetrics) ObserveNotification(result string) {
	f.notifications = append(f.notifications, result)
}

type staticStatus Status

func (s staticStatus) Status() Status { return Status(s) }

func TestRegistryLifecycle(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	assert.False(t, IsEnabled())
	assert.Nil(t, GetRegistry())

	reg := InitRegistry()
	assert.True(t, IsEnabled())
	assert.Same(t, reg, GetRegistry())

	Reset()
	assert.False(t, IsEnabled())
}

func TestNilSafeHelpers(t *testing.T) {
	assert.NotPanics(t, func() {
		ObserveIteration(nil, time.Millisecond, nil)
		ObserveNotification(nil, NotificationSent)
		SetState(nil, "running")
		ObserveRun(nil, "cancelled", time.Second)
	})

	f := &fakeWorkerMetrics{}
	ObserveIteration(f, time.Millisecond, nil)
	ObserveIteration(f, time.Millisecond, errors.New("x"))
	ObserveNotification(f, NotificationDisabled)

	assert.Equal(t, 2, f.iterations)
	assert.Equal(t, 1, f.errs)
	assert.Equal(t, []string{NotificationDisabled}, f.notifications)
}

func TestRouter_Health(t *testing.T) {
	tests := []struct {
		name       string
		status     StatusProvider
		path       string
		wantCode   int
		wantStatus string
	}{
		{"liveness without provider", nil, "/health", http.StatusOK, "healthy"},
		{"readiness without provider", nil, "/health/ready", http.StatusServiceUnavailable, "unhealthy"},
		{"ready while running", staticStatus{Service: "svc", State: "running", Ready: true}, "/health/ready", http.StatusOK, "healthy"},
		{"not ready when stopped", staticStatus{Service: "svc", State: "stopped"}, "/health/ready", http.StatusServiceUnavailable, "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := NewRouter(nil, tt.status)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantStatus, body["status"])
		})
	}
}

func TestRouter_ReadinessReportsState(t *testing.T) {
	router := NewRouter(nil, staticStatus{Service: "svc", State: "running", RunID: "abc", Iterations: 7, Ready: true})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	var body struct {
		Data Status `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "running", body.Data.State)
	assert.Equal(t, "abc", body.Data.RunID)
	assert.Equal(t, int64(7), body.Data.Iterations)
}

func TestRouter_Metrics(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewRouter(nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("enabled", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		c := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_total", Help: "test"})
		reg.MustRegister(c)
		c.Add(3)

		rec := httptest.NewRecorder()
		NewRouter(reg, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "test_total 3")
	})
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = l.Close() }()
	return l.Addr().(*net.TCPAddr).Port
}

func TestServer_StartStop(t *testing.T) {
	port := freePort(t)
	srv := NewServer(ServerConfig{Port: port}, staticStatus{Service: "svc", Ready: true})
	assert.Equal(t, port, srv.Port())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	url := fmt.Sprintf("http://127.0.0.1:%d/health", port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}

	assert.NoError(t, srv.Stop(context.Background()), "second stop is a no-op")
}

func TestServerConfig_Defaults(t *testing.T) {
	var cfg ServerConfig
	cfg.applyDefaults()
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.WriteTimeout)
}
