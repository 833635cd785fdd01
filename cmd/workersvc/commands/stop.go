package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	stopPidFile string
	stopForce   bool
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running service",
	Long: `Stop a workersvc instance started from a console.

Sends the same stop request as Ctrl-C or the service manager: the worker
finishes its current iteration and the process exits. Use --force to kill
the process instead.

Examples:
  # Stop the instance recorded in the default PID file
  workersvc stop

  # Use a custom PID file
  workersvc stop --pid-file /run/workersvc.pid`,
	Args: cobra.NoArgs,
	RunE: runStop,
}

func init() {
	stopCmd.Flags().StringVar(&stopPidFile, "pid-file", "", "Path to PID file (default: general.pid_file or $XDG_STATE_HOME/workersvc/workersvc.pid)")
	stopCmd.Flags().BoolVarP(&stopForce, "force", "f", false, "Kill the process instead of requesting a stop")
}

func runStop(cmd *cobra.Command, args []string) error {
	pidPath := resolvePidFile(stopPidFile)

	pid, err := readPidFile(pidPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("PID file not found: %s\n\nIs the service running?", pidPath)
		}
		return fmt.Errorf("failed to read PID file: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process %d: %w", pid, err)
	}

	out := cmd.OutOrStdout()
	if err := stopProcess(out, process, pid, stopForce); err != nil {
		if errors.Is(err, errProcessDone) {
			_, _ = fmt.Fprintln(out, "Service already stopped")
			_ = os.Remove(pidPath)
			return nil
		}
		return err
	}

	if stopForce {
		_, _ = fmt.Fprintln(out, "Service terminated")
	} else {
		_, _ = fmt.Fprintln(out, "Stop requested. The service exits after its current iteration.")
	}
	return nil
}
