// Package worker implements the worker loop: an optional startup
// notification followed by a periodic action repeated on a fixed interval
// until the cancellation signal is set.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/marmos91/workersvc/internal/logger"
	"github.com/marmos91/workersvc/internal/telemetry"
	"github.com/marmos91/workersvc/pkg/cancel"
	"github.com/marmos91/workersvc/pkg/metrics"
)

// ErrStop is returned by a PeriodicWorker to end the loop as CompletedNormally.
var ErrStop = errors.New("worker: stop requested")

// NotificationSender delivers the startup notification.
type NotificationSender interface {
	SendHTML(ctx context.Context, from, to, subject, htmlBody string) error
}

// PeriodicWorker is the action performed on every iteration. Iterations are
// numbered from 1.
type PeriodicWorker interface {
	Tick(ctx context.Context, iteration int64) error
}

// PeriodicWorkerFunc adapts a function to PeriodicWorker.
type PeriodicWorkerFunc func(ctx context.Context, iteration int64) error

func (f PeriodicWorkerFunc) Tick(ctx context.Context, iteration int64) error {
	return f(ctx, iteration)
}

// ProgressReporter is the default periodic action: it logs progress.
type ProgressReporter struct {
	Interval time.Duration
}

func (p ProgressReporter) Tick(ctx context.Context, iteration int64) error {
	logger.InfoCtx(ctx,
		fmt.Sprintf("#%d: Doing something every %d milliseconds", iteration, p.Interval.Milliseconds()),
		logger.Iteration(iteration),
	)
	return nil
}

// Config assembles a Loop. Only Options is required.
type Config struct {
	// ServiceName appears in the notification subject and body.
	ServiceName string

	Options      Options
	Notification NotificationSettings

	// Sender may be nil, in which case notifications are skipped.
	Sender NotificationSender

	// Action defaults to a ProgressReporter for Options.Interval.
	Action PeriodicWorker

	// Metrics may be nil.
	Metrics metrics.WorkerMetrics
}

// Loop runs the periodic action until cancellation. A Loop may be run again
// after it returns; the iteration counter restarts at zero on every run.
type Loop struct {
	serviceName  string
	options      Options
	notification NotificationSettings
	sender       NotificationSender
	action       PeriodicWorker
	metrics      metrics.WorkerMetrics

	iterations atomic.Int64
}

// New validates cfg and returns a Loop.
func New(cfg Config) (*Loop, error) {
	if err := cfg.Options.Validate(); err != nil {
		return nil, fmt.Errorf("invalid worker options: %w", err)
	}

	action := cfg.Action
	if action == nil {
		action = ProgressReporter{Interval: cfg.Options.Interval}
	}

	return &Loop{
		serviceName:  cfg.ServiceName,
		options:      cfg.Options,
		notification: cfg.Notification,
		sender:       cfg.Sender,
		action:       action,
		metrics:      cfg.Metrics,
	}, nil
}

// Iterations returns the number of periodic actions started in the current
// (or last) run. Safe to call from any goroutine.
func (l *Loop) Iterations() int64 {
	return l.iterations.Load()
}

// Run sends the startup notification, then repeats the periodic action until
// sig is set or the action ends the loop. sig is the only cancellation
// source; ctx carries request-scoped values (trace, log context) and is
// handed to the sender and the action.
//
// A panic in the action propagates to the caller.
func (l *Loop) Run(ctx context.Context, sig *cancel.Signal) Outcome {
	ctx, span := telemetry.StartWorkerSpan(ctx, telemetry.SpanWorkerRun, telemetry.IntervalMs(l.options.Interval))
	defer span.End()

	logger.InfoCtx(ctx, "Worker loop starting", logger.Interval(l.options.Interval))

	l.iterations.Store(0)
	l.notify(ctx)

	outcome := l.loop(ctx, sig)

	telemetry.SetAttributes(ctx,
		telemetry.Outcome(outcome.Kind.String()),
		telemetry.Iterations(outcome.Iterations),
	)
	telemetry.RecordError(ctx, outcome.Err)

	logger.InfoCtx(ctx, "Worker loop ending",
		logger.Outcome(outcome.Kind.String()),
		logger.Iteration(outcome.Iterations),
	)
	return outcome
}

func (l *Loop) loop(ctx context.Context, sig *cancel.Signal) Outcome {
	for !sig.IsSet() {
		n := l.iterations.Add(1)

		if err := l.tick(ctx, n); err != nil {
			if errors.Is(err, ErrStop) {
				return Completed(n)
			}
			return FaultedWith(fmt.Errorf("iteration %d: %w", n, err), n)
		}

		if sig.Wait(l.options.Interval) == cancel.Signaled {
			telemetry.AddEvent(ctx, telemetry.EventSignaled, telemetry.Iteration(n))
			break
		}
	}
	return CancelledAfter(l.iterations.Load())
}

func (l *Loop) tick(ctx context.Context, n int64) error {
	ctx, span := telemetry.StartWorkerSpan(ctx, telemetry.SpanWorkerTick, telemetry.Iteration(n))
	defer span.End()

	start := time.Now()
	err := l.action.Tick(ctx, n)
	metrics.ObserveIteration(l.metrics, time.Since(start), err)

	if err != nil && !errors.Is(err, ErrStop) {
		telemetry.RecordError(ctx, err)
	}
	return err
}
