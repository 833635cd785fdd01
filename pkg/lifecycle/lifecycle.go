// Package lifecycle owns the cancellation signal of the process, wires OS
// stop requests into it, attaches to the OS service manager and runs the
// service host to completion.
//
// Once the host has been started the process always exits with ExitCode,
// whatever the outcome. A service manager therefore treats every termination
// as a failure and its recovery actions (restart on failure) always apply.
package lifecycle

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"sync/atomic"

	"github.com/marmos91/workersvc/internal/logger"
	"github.com/marmos91/workersvc/pkg/cancel"
	"github.com/marmos91/workersvc/pkg/host"
	"github.com/marmos91/workersvc/pkg/metrics"
	"github.com/marmos91/workersvc/pkg/worker"
)

const (
	// ExitCode is returned for every run that reached the service host.
	ExitCode = 1

	// ExitCodeUsage is returned when the command line or configuration is
	// rejected and the service is never started.
	ExitCodeUsage = 2
)

// DefaultServiceName is used when no service name is configured.
const DefaultServiceName = "workersvc"

// ansiRed and ansiReset colour the fallback panic report on stderr.
const (
	ansiRed   = "\033[31m"
	ansiReset = "\033[0m"
)

// Options configure an Orchestrator.
type Options struct {
	// ServiceName is the name used with the service manager and in logs.
	ServiceName string

	// Environment is the configuration overlay name, for the banner only.
	Environment string

	// Interactive enables the Ctrl-C interrupt and the interactive banner.
	Interactive bool

	// Worker configures the worker loop hosted by the service.
	Worker worker.Config

	// HostMetrics may be nil.
	HostMetrics metrics.HostMetrics

	// Stderr receives the fallback panic report. Defaults to os.Stderr.
	Stderr io.Writer
}

// Orchestrator runs one service host under the process lifecycle.
type Orchestrator struct {
	opts Options
	sig  *cancel.Signal
	host atomic.Pointer[host.Host]
}

// New creates an orchestrator with its own cancellation signal.
func New(opts Options) *Orchestrator {
	if opts.ServiceName == "" {
		opts.ServiceName = DefaultServiceName
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	return &Orchestrator{opts: opts, sig: cancel.New()}
}

// Signal returns the cancellation signal owned by the orchestrator.
func (o *Orchestrator) Signal() *cancel.Signal {
	return o.sig
}

// Stop requests cancellation. Equivalent to an OS stop request.
func (o *Orchestrator) Stop() {
	o.sig.Set()
}

// Status implements metrics.StatusProvider.
func (o *Orchestrator) Status() metrics.Status {
	if h := o.host.Load(); h != nil {
		return h.Status()
	}
	return metrics.Status{Service: o.opts.ServiceName, State: host.NotStarted.String()}
}

// Run blocks until the hosted worker has finished and returns the process
// exit code, which is always ExitCode. Cancelling ctx is treated as a stop
// request.
func (o *Orchestrator) Run(ctx context.Context) (code int) {
	code = ExitCode
	defer func() {
		if r := recover(); r != nil {
			ReportPanic(o.opts.Stderr, r)
			code = ExitCode
		}
	}()

	stopSignals := watchSignals(o.sig, o.opts.Interactive)
	defer stopSignals()

	runDone := make(chan struct{})
	defer close(runDone)
	go func() {
		select {
		case <-ctx.Done():
			logger.Info("Context cancelled; requesting stop")
			o.sig.Set()
		case <-o.sig.Done():
		case <-runDone:
		}
	}()

	o.logStartBanner()

	loop, err := worker.New(o.opts.Worker)
	if err != nil {
		logger.Error("Failed to create worker", logger.Err(err))
		return ExitCode
	}

	h := host.New(o.opts.ServiceName, loop, o.opts.HostMetrics)
	o.host.Store(h)

	outcome := runService(o.opts.ServiceName, o.sig, func() worker.Outcome {
		return h.Run(ctx, o.sig)
	})

	logger.Info("Stopping", logger.Outcome(outcome.Kind.String()), logger.Iteration(outcome.Iterations))
	return ExitCode
}

func (o *Orchestrator) logStartBanner() {
	logger.Info("Starting",
		logger.KeyService, o.opts.ServiceName,
		logger.KeyPID, os.Getpid(),
		logger.Interval(o.opts.Worker.Options.Interval),
	)
	if o.opts.Interactive {
		logger.Info("Press Ctrl-C to cancel")
	}
	if o.opts.Environment != "" {
		logger.Info(fmt.Sprintf("%s environment detected", strings.ToUpper(o.opts.Environment)),
			logger.KeyEnvironment, o.opts.Environment)
	}
}

// ReportPanic logs a recovered panic, or writes it in red to w while the
// configured logger is not available.
func ReportPanic(w io.Writer, r any) {
	stack := string(debug.Stack())
	if logger.IsConfigured() {
		logger.Error("Unhandled panic", "panic", r, "stack", stack)
		return
	}
	_, _ = fmt.Fprintf(w, "%sunhandled panic: %v\n%s%s\n", ansiRed, r, stack, ansiReset)
}
