package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for service lifecycle spans.
const (
	AttrServiceName = "service.instance.name"
	AttrRunID       = "workersvc.run_id"
	AttrEnvironment = "deployment.environment"

	AttrHostState = "workersvc.host.state"
	AttrOutcome   = "workersvc.outcome"

	AttrIteration  = "workersvc.worker.iteration"
	AttrIterations = "workersvc.worker.iterations"
	AttrIntervalMs = "workersvc.worker.interval_ms"

	AttrNotifyResult = "workersvc.notify.result"
	AttrNotifyTo     = "workersvc.notify.to"
)

// Span names.
const (
	SpanHostRun      = "host.run"
	SpanWorkerRun    = "worker.run"
	SpanWorkerTick   = "worker.tick"
	SpanWorkerNotify = "worker.notify"
)

// Event names recorded on host and worker spans.
const (
	EventStopRequested = "stop_requested"
	EventSignaled      = "signaled"
)

func ServiceName(name string) attribute.KeyValue {
	return attribute.String(AttrServiceName, name)
}

func RunID(id string) attribute.KeyValue {
	return attribute.String(AttrRunID, id)
}

func Environment(env string) attribute.KeyValue {
	return attribute.String(AttrEnvironment, env)
}

func HostState(state string) attribute.KeyValue {
	return attribute.String(AttrHostState, state)
}

func Outcome(outcome string) attribute.KeyValue {
	return attribute.String(AttrOutcome, outcome)
}

func Iteration(n int64) attribute.KeyValue {
	return attribute.Int64(AttrIteration, n)
}

func Iterations(n int64) attribute.KeyValue {
	return attribute.Int64(AttrIterations, n)
}

func IntervalMs(d time.Duration) attribute.KeyValue {
	return attribute.Int64(AttrIntervalMs, d.Milliseconds())
}

func NotifyResult(result string) attribute.KeyValue {
	return attribute.String(AttrNotifyResult, result)
}

func NotifyTo(addr string) attribute.KeyValue {
	return attribute.String(AttrNotifyTo, addr)
}

// StartHostSpan starts the span covering one host run.
func StartHostSpan(ctx context.Context, service, runID string) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanHostRun,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(ServiceName(service), RunID(runID)),
	)
}

// StartWorkerSpan starts a worker span (run, tick or notify).
func StartWorkerSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}
