package logger

import (
	"log/slog"
	"time"
)

// Standard field keys for structured logging. Use them consistently so log
// aggregation can query runs, iterations and outcomes across restarts.
const (
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	KeyService     = "service"
	KeyRunID       = "run_id"
	KeyEnvironment = "environment"
	KeyVersion     = "version"
	KeyPID         = "pid"

	KeyState     = "state"
	KeyOutcome   = "outcome"
	KeyIteration = "iteration"
	KeyInterval  = "interval"

	KeyFrom    = "from"
	KeyTo      = "to"
	KeySubject = "subject"

	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeySource     = "source"
	KeyPath       = "path"
)

// RunID returns a slog.Attr for the id of one host run
func RunID(id string) slog.Attr {
	return slog.String(KeyRunID, id)
}

// Iteration returns a slog.Attr for the worker loop iteration counter
func Iteration(n int64) slog.Attr {
	return slog.Int64(KeyIteration, n)
}

// Interval returns a slog.Attr for the periodic action interval
func Interval(d time.Duration) slog.Attr {
	return slog.Duration(KeyInterval, d)
}

// State returns a slog.Attr for a host lifecycle state
func State(s string) slog.Attr {
	return slog.String(KeyState, s)
}

// Outcome returns a slog.Attr for a worker run outcome
func Outcome(o string) slog.Attr {
	return slog.String(KeyOutcome, o)
}

// Err returns a slog.Attr for an error. A nil error yields an empty attr,
// which handlers drop.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// DurationMs returns a slog.Attr for an elapsed time in milliseconds
func DurationMs(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMs, float64(d.Microseconds())/1000.0)
}
