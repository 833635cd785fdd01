// Package host wraps a worker run in the service lifecycle: start, run,
// classify the outcome, stop.
//
// State machine:
//
//	NotStarted -> Starting -> Running -> StopRequested -> Stopped
//	                          Running -> Stopped (worker ended by itself)
//
// The host never interrupts the worker. A stop request only moves the state
// to StopRequested; the worker observes the same signal and returns on its
// own.
package host

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/workersvc/internal/logger"
	"github.com/marmos91/workersvc/internal/telemetry"
	"github.com/marmos91/workersvc/pkg/cancel"
	"github.com/marmos91/workersvc/pkg/metrics"
	"github.com/marmos91/workersvc/pkg/worker"
)

// ErrAlreadyStarted is the fault reported when Run is called more than once.
var ErrAlreadyStarted = errors.New("host: already started")

// ErrWorkerPanic wraps a panic recovered from the worker.
var ErrWorkerPanic = errors.New("host: worker panicked")

// Runner is the worker run hosted by a Host. *worker.Loop satisfies it.
type Runner interface {
	Run(ctx context.Context, sig *cancel.Signal) worker.Outcome
}

// iterationCounter is optionally implemented by a Runner so a panicking run
// still reports how far it got.
type iterationCounter interface {
	Iterations() int64
}

// Host runs a Runner once under the service lifecycle.
type Host struct {
	name    string
	runner  Runner
	metrics metrics.HostMetrics

	state atomic.Int32

	mu    sync.RWMutex
	runID string
}

// New creates a host for runner. hm may be nil.
func New(name string, runner Runner, hm metrics.HostMetrics) *Host {
	h := &Host{name: name, runner: runner, metrics: hm}
	metrics.SetState(hm, NotStarted.String())
	return h
}

// Name returns the service name the host was created with.
func (h *Host) Name() string {
	return h.name
}

// State returns the current lifecycle state. Safe from any goroutine.
func (h *Host) State() State {
	return State(h.state.Load())
}

// RunID returns the id assigned to the run, or "" before Run.
func (h *Host) RunID() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.runID
}

// Iterations reports the runner's progress when the runner exposes it.
func (h *Host) Iterations() int64 {
	if c, ok := h.runner.(iterationCounter); ok {
		return c.Iterations()
	}
	return 0
}

// Status returns a snapshot for the health endpoint.
func (h *Host) Status() metrics.Status {
	state := h.State()
	return metrics.Status{
		Service:    h.name,
		State:      state.String(),
		RunID:      h.RunID(),
		Iterations: h.Iterations(),
		Ready:      state == Running,
	}
}

func (h *Host) setState(s State) {
	h.state.Store(int32(s))
	metrics.SetState(h.metrics, s.String())
}

// transition moves from -> to and reports whether it happened.
func (h *Host) transition(from, to State) bool {
	if !h.state.CompareAndSwap(int32(from), int32(to)) {
		return false
	}
	metrics.SetState(h.metrics, to.String())
	return true
}

// Run executes the runner synchronously and returns its outcome. It never
// panics: worker panics become Faulted. A second call returns
// Faulted(ErrAlreadyStarted) without touching the runner.
func (h *Host) Run(ctx context.Context, sig *cancel.Signal) (outcome worker.Outcome) {
	if !h.transition(NotStarted, Starting) {
		logger.ErrorCtx(ctx, "Service host already started", logger.State(h.State().String()))
		return worker.FaultedWith(ErrAlreadyStarted, 0)
	}

	runID := uuid.NewString()
	h.mu.Lock()
	h.runID = runID
	h.mu.Unlock()

	ctx, span := telemetry.StartHostSpan(ctx, h.name, runID)
	defer span.End()

	lc := logger.NewLogContext(h.name, runID).WithTrace(telemetry.TraceID(ctx), telemetry.SpanID(ctx))
	ctx = logger.WithContext(ctx, lc)

	logger.InfoCtx(ctx, "Service host starting", logger.State(Starting.String()))

	runDone := make(chan struct{})
	watchDone := make(chan struct{})

	h.setState(Running)
	go func() {
		defer close(watchDone)
		h.watchStop(ctx, sig, runDone)
	}()

	start := time.Now()
	defer func() {
		// The stop watcher must be gone before Stopped is published so its
		// transition and log never follow the outcome.
		close(runDone)
		<-watchDone

		h.setState(Stopped)
		metrics.ObserveRun(h.metrics, outcome.Kind.String(), time.Since(start))
		telemetry.SetAttributes(ctx, telemetry.Outcome(outcome.Kind.String()), telemetry.Iterations(outcome.Iterations))
		h.logOutcome(ctx, outcome, time.Since(start))
	}()

	return h.runWorker(ctx, sig)
}

func (h *Host) runWorker(ctx context.Context, sig *cancel.Signal) (outcome worker.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorCtx(ctx, "Worker panic recovered", "panic", r, "stack", string(debug.Stack()))
			err := fmt.Errorf("%w: %v", ErrWorkerPanic, r)
			telemetry.RecordError(ctx, err)
			outcome = worker.FaultedWith(err, h.Iterations())
		}
	}()
	return h.runner.Run(ctx, sig)
}

// watchStop moves Running -> StopRequested when sig fires during the run.
// A run that has already returned takes precedence over a pending signal.
func (h *Host) watchStop(ctx context.Context, sig *cancel.Signal, runDone <-chan struct{}) {
	select {
	case <-sig.Done():
		select {
		case <-runDone:
			return
		default:
		}
		if h.transition(Running, StopRequested) {
			logger.InfoCtx(ctx, "Stop requested; waiting for worker to finish", logger.State(StopRequested.String()))
			telemetry.AddEvent(ctx, telemetry.EventStopRequested)
		}
	case <-runDone:
	}
}

func (h *Host) logOutcome(ctx context.Context, outcome worker.Outcome, elapsed time.Duration) {
	args := []any{
		logger.Outcome(outcome.Kind.String()),
		logger.Iteration(outcome.Iterations),
		logger.DurationMs(elapsed),
	}

	switch outcome.Kind {
	case worker.Faulted:
		logger.ErrorCtx(ctx, "Service host stopped: worker faulted", append(args, logger.Err(outcome.Err))...)
	case worker.Cancelled:
		logger.InfoCtx(ctx, "Service host stopped: worker cancelled", args...)
	default:
		logger.InfoCtx(ctx, "Service host stopped: worker completed", args...)
	}
}
