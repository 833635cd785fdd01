package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// useRecorder installs an in-memory tracer for the duration of the test.
func useRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	mu.Lock()
	prevTracer, prevEnabled := tracer, enabled
	tracer, enabled = tp.Tracer(instrumentationName), true
	mu.Unlock()

	t.Cleanup(func() {
		mu.Lock()
		tracer, enabled = prevTracer, prevEnabled
		mu.Unlock()
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func attrMap(kvs []attribute.KeyValue) map[string]attribute.Value {
	m := make(map[string]attribute.Value, len(kvs))
	for _, kv := range kvs {
		m[string(kv.Key)] = kv.Value
	}
	return m
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.False(t, cfg.Enabled)
	assert.Equal(t, "workersvc", cfg.ServiceName)
	assert.Equal(t, "dev", cfg.ServiceVersion)
	assert.Equal(t, "localhost:4317", cfg.Endpoint)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, 1.0, cfg.SampleRate)
}

func TestInitDisabled(t *testing.T) {
	ctx := context.Background()

	shutdown, err := Init(ctx, DefaultConfig())
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	assert.NoError(t, shutdown(ctx))
	assert.False(t, IsEnabled())
	assert.NotNil(t, Tracer())
}

func TestSamplerFor(t *testing.T) {
	assert.Contains(t, samplerFor(1.0).Description(), "AlwaysOn")
	assert.Contains(t, samplerFor(2.0).Description(), "AlwaysOn")
	assert.Contains(t, samplerFor(0).Description(), "AlwaysOff")
	assert.Contains(t, samplerFor(0.25).Description(), "TraceIDRatioBased")
}

func TestNoopHelpers(t *testing.T) {
	ctx := context.Background()

	require.NotPanics(t, func() {
		_, span := StartSpan(ctx, "test.operation")
		span.End()
		AddEvent(ctx, "test.event")
		RecordError(ctx, nil)
		RecordError(ctx, errors.New("test error"))
		SetStatus(ctx, codes.Ok, "success")
		SetAttributes(ctx, Iteration(1))
	})

	assert.Empty(t, TraceID(ctx))
	assert.Empty(t, SpanID(ctx))
	assert.NotNil(t, SpanFromContext(ctx))
}

func TestStartHostSpan(t *testing.T) {
	sr := useRecorder(t)

	ctx, span := StartHostSpan(context.Background(), "Worker", "run-1")
	assert.NotEmpty(t, TraceID(ctx))
	assert.NotEmpty(t, SpanID(ctx))

	AddEvent(ctx, EventStopRequested, HostState("stop_requested"))
	SetAttributes(ctx, Outcome("cancelled"))
	span.End()

	ended := sr.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, SpanHostRun, ended[0].Name())

	attrs := attrMap(ended[0].Attributes())
	assert.Equal(t, "Worker", attrs[AttrServiceName].AsString())
	assert.Equal(t, "run-1", attrs[AttrRunID].AsString())
	assert.Equal(t, "cancelled", attrs[AttrOutcome].AsString())

	require.Len(t, ended[0].Events(), 1)
	assert.Equal(t, EventStopRequested, ended[0].Events()[0].Name)
}

func TestStartWorkerSpan_RecordError(t *testing.T) {
	sr := useRecorder(t)

	ctx, span := StartWorkerSpan(context.Background(), SpanWorkerTick, Iteration(3))
	RecordError(ctx, errors.New("tick failed"))
	span.End()

	ended := sr.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "tick failed", ended[0].Status().Description)
	assert.Equal(t, int64(3), attrMap(ended[0].Attributes())[AttrIteration].AsInt64())
}

func TestAttributeHelpers(t *testing.T) {
	tests := []struct {
		name string
		kv   attribute.KeyValue
		key  string
		want any
	}{
		{"ServiceName", ServiceName("svc"), AttrServiceName, "svc"},
		{"RunID", RunID("r"), AttrRunID, "r"},
		{"Environment", Environment("Production"), AttrEnvironment, "Production"},
		{"HostState", HostState("running"), AttrHostState, "running"},
		{"Outcome", Outcome("faulted"), AttrOutcome, "faulted"},
		{"Iteration", Iteration(4), AttrIteration, int64(4)},
		{"Iterations", Iterations(9), AttrIterations, int64(9)},
		{"IntervalMs", IntervalMs(1500 * time.Millisecond), AttrIntervalMs, int64(1500)},
		{"NotifyResult", NotifyResult("sent"), AttrNotifyResult, "sent"},
		{"NotifyTo", NotifyTo("ops@example.com"), AttrNotifyTo, "ops@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.key, string(tt.kv.Key))
			assert.Equal(t, tt.want, tt.kv.Value.AsInterface())
		})
	}
}
