package commands

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/workersvc/pkg/lifecycle"
	"github.com/marmos91/workersvc/pkg/worker"
)

// fakeServe records the options the root command would start the service
// with.
type fakeServe struct {
	calls []serviceOptions
	code  int
	err   error
	panic any
}

func (f *fakeServe) serve(ctx context.Context, opts serviceOptions) (int, error) {
	f.calls = append(f.calls, opts)
	if f.panic != nil {
		panic(f.panic)
	}
	return f.code, f.err
}

// execute runs the command line with fresh flag values and returns the exit
// code and stderr.
func execute(t *testing.T, fake *fakeServe, args ...string) (int, string) {
	t.Helper()

	original := serve
	serve = fake.serve
	t.Cleanup(func() { serve = original })

	cfgFile, serviceName = "", ""
	sleepMs = int(worker.DefaultInterval / time.Millisecond)
	reset := func(f *pflag.Flag) { f.Changed = false }
	rootCmd.Flags().VisitAll(reset)
	rootCmd.PersistentFlags().VisitAll(reset)

	if args == nil {
		// nil would make cobra fall back to the test binary's os.Args.
		args = []string{}
	}

	var stderr bytes.Buffer
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	return Execute(), stderr.String()
}

func TestRoot_UsageErrorsNeverStartTheService(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "negative sleep", args: []string{"--sleep", "-1"}},
		{name: "negative short sleep", args: []string{"-s", "-250"}},
		{name: "non numeric sleep", args: []string{"--sleep", "soon"}},
		{name: "missing sleep value", args: []string{"--sleep"}},
		{name: "unknown flag", args: []string{"--verbose"}},
		{name: "unknown command", args: []string{"restart"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeServe{code: lifecycle.ExitCode}

			code, stderr := execute(t, fake, tt.args...)

			assert.Equal(t, lifecycle.ExitCodeUsage, code)
			assert.Empty(t, fake.calls, "service must not start")
			assert.Contains(t, stderr, "Error:")
		})
	}
}

func TestRoot_ParsesExecutionOptions(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		interval time.Duration
		service  string
		config   string
	}{
		{name: "defaults", interval: 5000 * time.Millisecond},
		{name: "long sleep", args: []string{"--sleep", "250"}, interval: 250 * time.Millisecond},
		{name: "short sleep", args: []string{"-s", "100"}, interval: 100 * time.Millisecond},
		{name: "zero sleep", args: []string{"-s", "0"}, interval: 0},
		{
			name:     "service name and config",
			args:     []string{"--service-name", "Worker", "--config", "/etc/workersvc"},
			interval: 5000 * time.Millisecond,
			service:  "Worker",
			config:   "/etc/workersvc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeServe{code: lifecycle.ExitCode}

			code, _ := execute(t, fake, tt.args...)

			assert.Equal(t, lifecycle.ExitCode, code)
			require.Len(t, fake.calls, 1)
			assert.Equal(t, serviceOptions{
				ConfigPath:  tt.config,
				ServiceName: tt.service,
				Interval:    tt.interval,
			}, fake.calls[0])
		})
	}
}

func TestRoot_ServeErrors(t *testing.T) {
	t.Run("configuration rejected", func(t *testing.T) {
		fake := &fakeServe{err: &UsageError{Err: errors.New("configuration validation failed")}}
		code, stderr := execute(t, fake)
		assert.Equal(t, lifecycle.ExitCodeUsage, code)
		assert.Contains(t, stderr, "configuration validation failed")
	})

	t.Run("bootstrap failure", func(t *testing.T) {
		fake := &fakeServe{err: errors.New("failed to initialize logger")}
		code, _ := execute(t, fake)
		assert.Equal(t, lifecycle.ExitCode, code)
	})
}

func TestRoot_SubcommandSucceeds(t *testing.T) {
	fake := &fakeServe{}
	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	t.Cleanup(func() { rootCmd.SetOut(nil) })

	code, _ := execute(t, fake, "version")

	assert.Equal(t, 0, code)
	assert.Empty(t, fake.calls)
	assert.Contains(t, stdout.String(), "workersvc dev")
}

func TestUsageError_Unwrap(t *testing.T) {
	inner := errors.New("bad flag")
	var err error = &UsageError{Err: inner}

	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "bad flag", err.Error())
}

func TestRoot_BootstrapPanicExitsWithFixedCode(t *testing.T) {
	fake := &fakeServe{panic: "config loader exploded"}

	var (
		code   int
		stderr string
	)
	require.NotPanics(t, func() { code, stderr = execute(t, fake) })

	assert.Equal(t, lifecycle.ExitCode, code)
	assert.Len(t, fake.calls, 1)
	assert.Contains(t, stderr, "unhandled panic: config loader exploded")
	assert.Contains(t, stderr, "\033[31m")
}
