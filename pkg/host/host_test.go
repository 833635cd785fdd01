package host

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/workersvc/pkg/cancel"
	"github.com/marmos91/workersvc/pkg/worker"
)

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context, sig *cancel.Signal) worker.Outcome {
	args := m.Called(ctx, sig)
	return args.Get(0).(worker.Outcome)
}

// funcRunner runs fn as the worker.
type funcRunner func(ctx context.Context, sig *cancel.Signal) worker.Outcome

func (f funcRunner) Run(ctx context.Context, sig *cancel.Signal) worker.Outcome {
	return f(ctx, sig)
}

type recordingHostMetrics struct {
	mu     sync.Mutex
	states []string
	runs   []string
}

func (r *recordingHostMetrics) SetState(state string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
}

func (r *recordingHostMetrics) ObserveRun(outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, outcome)
}

func TestHost_OutcomesPassThrough(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name    string
		outcome worker.Outcome
	}{
		{"completed", worker.Completed(4)},
		{"cancelled", worker.CancelledAfter(2)},
		{"faulted", worker.FaultedWith(boom, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &mockRunner{}
			runner.On("Run", mock.Anything, mock.Anything).Return(tt.outcome).Once()
			hm := &recordingHostMetrics{}

			h := New("Worker", runner, hm)
			got := h.Run(context.Background(), cancel.New())

			assert.Equal(t, tt.outcome, got)
			assert.Equal(t, Stopped, h.State())
			runner.AssertExpectations(t)
			assert.Equal(t, []string{tt.outcome.Kind.String()}, hm.runs)
		})
	}
}

func TestHost_StateTransitionsWithoutStop(t *testing.T) {
	hm := &recordingHostMetrics{}
	var h *Host
	var during State
	h = New("Worker", funcRunner(func(context.Context, *cancel.Signal) worker.Outcome {
		during = h.State()
		return worker.Completed(1)
	}), hm)

	assert.Equal(t, NotStarted, h.State())
	h.Run(context.Background(), cancel.New())

	assert.Equal(t, Running, during)
	assert.Equal(t, Stopped, h.State())
	assert.Equal(t, []string{"not_started", "starting", "running", "stopped"}, hm.states)
}

func TestHost_StopRequestedWhileRunning(t *testing.T) {
	sig := cancel.New()
	observed := make(chan State, 1)

	var h *Host
	h = New("Worker", funcRunner(func(_ context.Context, s *cancel.Signal) worker.Outcome {
		s.Set()
		require.Eventually(t, func() bool { return h.State() == StopRequested }, time.Second, time.Millisecond)
		observed <- h.State()
		return worker.CancelledAfter(1)
	}), nil)

	outcome := h.Run(context.Background(), sig)

	assert.Equal(t, StopRequested, <-observed)
	assert.Equal(t, worker.Cancelled, outcome.Kind)
	assert.Equal(t, Stopped, h.State())
}

func TestHost_StopAtReturnNeverFollowsStopped(t *testing.T) {
	for i := 0; i < 200; i++ {
		sig := cancel.New()
		hm := &recordingHostMetrics{}
		h := New("Worker", funcRunner(func(_ context.Context, s *cancel.Signal) worker.Outcome {
			s.Set()
			return worker.CancelledAfter(1)
		}), hm)

		h.Run(context.Background(), sig)

		hm.mu.Lock()
		states := append([]string(nil), hm.states...)
		hm.mu.Unlock()

		require.NotEmpty(t, states)
		require.Equal(t, "stopped", states[len(states)-1], "run %d: %v", i, states)
		assert.Equal(t, Stopped, h.State())
	}
}

func TestHost_RunTwiceFaults(t *testing.T) {
	runner := &mockRunner{}
	runner.On("Run", mock.Anything, mock.Anything).Return(worker.Completed(0)).Once()

	h := New("Worker", runner, nil)
	first := h.Run(context.Background(), cancel.New())
	second := h.Run(context.Background(), cancel.New())

	assert.Equal(t, worker.CompletedNormally, first.Kind)
	assert.Equal(t, worker.Faulted, second.Kind)
	assert.ErrorIs(t, second.Err, ErrAlreadyStarted)
	assert.Equal(t, Stopped, h.State())
	runner.AssertNumberOfCalls(t, "Run", 1)
}

type panickyLoop struct{}

func (panickyLoop) Run(context.Context, *cancel.Signal) worker.Outcome { panic("kaboom") }
func (panickyLoop) Iterations() int64                                  { return 5 }

func TestHost_PanicBecomesFaulted(t *testing.T) {
	h := New("Worker", panickyLoop{}, nil)

	var outcome worker.Outcome
	require.NotPanics(t, func() {
		outcome = h.Run(context.Background(), cancel.New())
	})

	assert.Equal(t, worker.Faulted, outcome.Kind)
	assert.ErrorIs(t, outcome.Err, ErrWorkerPanic)
	assert.Contains(t, outcome.Err.Error(), "kaboom")
	assert.Equal(t, int64(5), outcome.Iterations)
	assert.Equal(t, Stopped, h.State())
}

func TestHost_WithWorkerLoop(t *testing.T) {
	loop, err := worker.New(worker.Config{Options: worker.Options{Interval: 10 * time.Millisecond}})
	require.NoError(t, err)

	sig := cancel.New()
	h := New("Worker", loop, nil)

	time.AfterFunc(35*time.Millisecond, sig.Set)
	outcome := h.Run(context.Background(), sig)

	assert.Equal(t, worker.Cancelled, outcome.Kind)
	assert.GreaterOrEqual(t, outcome.Iterations, int64(1))
	assert.Equal(t, outcome.Iterations, h.Iterations())
}

func TestHost_Status(t *testing.T) {
	release := make(chan struct{})
	running := make(chan struct{})

	h := New("Worker", funcRunner(func(context.Context, *cancel.Signal) worker.Outcome {
		close(running)
		<-release
		return worker.Completed(0)
	}), nil)

	st := h.Status()
	assert.Equal(t, "Worker", st.Service)
	assert.Equal(t, "not_started", st.State)
	assert.False(t, st.Ready)
	assert.Empty(t, st.RunID)

	done := make(chan struct{})
	go func() {
		h.Run(context.Background(), cancel.New())
		close(done)
	}()

	<-running
	st = h.Status()
	assert.Equal(t, "running", st.State)
	assert.True(t, st.Ready)
	assert.Len(t, st.RunID, 36)

	close(release)
	<-done
	assert.Equal(t, "stopped", h.Status().State)
	assert.Equal(t, "Worker", h.Name())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "not_started", NotStarted.String())
	assert.Equal(t, "stop_requested", StopRequested.String())
	assert.Equal(t, "State(42)", State(42).String())
}
