// Package commands implements the workersvc command line.
package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/workersvc/cmd/workersvc/commands/config"
	"github.com/marmos91/workersvc/pkg/lifecycle"
	"github.com/marmos91/workersvc/pkg/worker"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	// Global flags.
	cfgFile     string
	serviceName string

	// Root flags.
	sleepMs int

	// exitCode is set by the root command once the service has run.
	exitCode int
)

// rootCmd runs the service when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "workersvc",
	Short: "workersvc - periodic background worker service",
	Long: `workersvc runs a periodic worker until it is asked to stop, either with
Ctrl-C on an interactive console, SIGTERM, or a stop request from the
service manager.

Once started the process always exits with code 1, so the service manager's
restart-on-failure policy applies to every termination.

Examples:
  # Run in the foreground, one iteration every 5 seconds
  workersvc

  # One iteration every 250 milliseconds
  workersvc --sleep 250

  # Use a specific configuration directory
  workersvc --config /etc/workersvc`,
	Args:          rejectArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

// UsageError reports a rejected command line or configuration. The service
// is never started and the process exits with lifecycle.ExitCodeUsage.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }
func (e *UsageError) Unwrap() error { return e.Err }

func usageErrorf(format string, args ...any) error {
	return &UsageError{Err: fmt.Errorf(format, args...)}
}

// Execute runs the command line and returns the process exit code. A panic
// while bootstrapping the service is reported and exits with
// lifecycle.ExitCode.
func Execute() (code int) {
	defer func() {
		if r := recover(); r != nil {
			lifecycle.ReportPanic(rootCmd.ErrOrStderr(), r)
			code = lifecycle.ExitCode
		}
	}()

	exitCode = 0
	if err := rootCmd.Execute(); err != nil {
		PrintErr("Error: %v", err)

		var usageErr *UsageError
		if errors.As(err, &usageErr) {
			return lifecycle.ExitCodeUsage
		}
		return lifecycle.ExitCode
	}
	return exitCode
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file or directory (default: the executable's directory)")
	rootCmd.PersistentFlags().StringVar(&serviceName, "service-name", "", "service name (default: general.default_service_name)")

	rootCmd.Flags().IntVarP(&sleepMs, "sleep", "s", int(worker.DefaultInterval/time.Millisecond), "milliseconds to sleep between iterations (>= 0)")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &UsageError{Err: err}
	})

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(config.Cmd)
	rootCmd.AddCommand(completionCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// rejectArgs turns stray positional arguments, including unknown
// subcommands, into usage errors.
func rejectArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return usageErrorf("unknown command %q for %q", args[0], cmd.CommandPath())
	}
	return nil
}

func runRoot(cmd *cobra.Command, args []string) error {
	if sleepMs < 0 {
		return usageErrorf("invalid argument %d for \"-s, --sleep\" flag: must be >= 0", sleepMs)
	}

	code, err := serve(cmd.Context(), serviceOptions{
		ConfigPath:  cfgFile,
		ServiceName: serviceName,
		Interval:    time.Duration(sleepMs) * time.Millisecond,
	})
	if err != nil {
		return err
	}
	exitCode = code
	return nil
}

// GetConfigFile returns the config path from the global flag.
func GetConfigFile() string {
	return cfgFile
}

// PrintErr prints an error message to stderr.
func PrintErr(format string, args ...any) {
	rootCmd.PrintErrf(format+"\n", args...)
}
