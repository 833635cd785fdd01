package commands

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/workersvc/pkg/metrics"
)

type staticStatus metrics.Status

func (s staticStatus) Status() metrics.Status { return metrics.Status(s) }

func TestCollectStatus(t *testing.T) {
	ownPid := filepath.Join(t.TempDir(), "workersvc.pid")
	require.NoError(t, os.WriteFile(ownPid, []byte(strconv.Itoa(os.Getpid())), 0644))
	missingPid := filepath.Join(t.TempDir(), "missing.pid")

	running := staticStatus{Service: "Worker", State: "running", RunID: "run-1", Iterations: 12, Ready: true}
	stopping := staticStatus{Service: "Worker", State: "stop_requested", Iterations: 3}

	tests := []struct {
		name     string
		pidPath  string
		provider metrics.StatusProvider
		want     ServiceStatus
	}{
		{
			name:     "running and ready",
			pidPath:  ownPid,
			provider: running,
			want: ServiceStatus{
				Running: true, PID: os.Getpid(), Service: "Worker", State: "running",
				RunID: "run-1", Iterations: 12, Ready: true, Message: "Service is running",
			},
		},
		{
			name:     "stop requested",
			pidPath:  missingPid,
			provider: stopping,
			want: ServiceStatus{
				Running: true, Service: "Worker", State: "stop_requested",
				Iterations: 3, Message: "Service is not ready (state stop_requested)",
			},
		},
		{
			name:    "not initialized",
			pidPath: missingPid,
			want: ServiceStatus{
				Running: true, Message: "Service is not ready: service not initialized",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(metrics.NewRouter(nil, tt.provider))
			defer srv.Close()

			assert.Equal(t, tt.want, collectStatus(tt.pidPath, srv.URL))
		})
	}
}

func TestCollectStatus_Unreachable(t *testing.T) {
	srv := httptest.NewServer(metrics.NewRouter(nil, nil))
	url := srv.URL
	srv.Close()

	t.Run("no process", func(t *testing.T) {
		got := collectStatus(filepath.Join(t.TempDir(), "missing.pid"), url)
		assert.Equal(t, ServiceStatus{Message: "Service is not running"}, got)
	})

	t.Run("process without metrics", func(t *testing.T) {
		pidPath := filepath.Join(t.TempDir(), "workersvc.pid")
		require.NoError(t, os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())), 0644))

		got := collectStatus(pidPath, url)
		assert.True(t, got.Running)
		assert.Equal(t, os.Getpid(), got.PID)
		assert.False(t, got.Ready)
	})
}

func TestServiceStatus_Pairs(t *testing.T) {
	stopped := ServiceStatus{Message: "Service is not running"}
	pairs := stopped.Pairs()
	require.Len(t, pairs, 2)
	assert.Contains(t, pairs[0][1], "Stopped")

	running := ServiceStatus{Running: true, Ready: true, PID: 7, Service: "Worker", State: "running", Iterations: 2, Message: "ok"}
	pairs = running.Pairs()
	require.Len(t, pairs, 7)
	assert.Contains(t, pairs[0][1], "Running")
	assert.Equal(t, [2]string{"PID", "7"}, pairs[1])
	assert.Equal(t, [2]string{"Iterations", "2"}, pairs[5])
}
