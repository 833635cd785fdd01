//go:build windows

package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// stopProcess kills the process. Windows cannot deliver a console interrupt
// to another process group, so a graceful stop must go through the service
// manager (sc stop <name>).
func stopProcess(out io.Writer, process *os.Process, pid int, force bool) error {
	if !force {
		return fmt.Errorf("graceful stop is not supported on Windows: use 'sc stop' for services or --force")
	}

	_, _ = fmt.Fprintf(out, "Killing process %d...\n", pid)

	err := process.Kill()
	if errors.Is(err, os.ErrProcessDone) {
		return errProcessDone
	}
	if err != nil {
		return fmt.Errorf("failed to stop process: %w", err)
	}
	return nil
}
