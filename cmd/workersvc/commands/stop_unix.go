//go:build !windows

package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"
)

// stopProcess sends SIGTERM, or SIGKILL when forced.
func stopProcess(out io.Writer, process *os.Process, pid int, force bool) error {
	sig, name := syscall.SIGTERM, "SIGTERM"
	if force {
		sig, name = syscall.SIGKILL, "SIGKILL"
	}

	_, _ = fmt.Fprintf(out, "Sending %s to process %d...\n", name, pid)

	err := process.Signal(sig)
	if errors.Is(err, os.ErrProcessDone) {
		return errProcessDone
	}
	if err != nil {
		return fmt.Errorf("failed to send signal: %w", err)
	}
	return nil
}
