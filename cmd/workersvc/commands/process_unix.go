//go:build !windows

package commands

import (
	"os"
	"syscall"
)

// isProcessRunning reads a PID from pidPath and reports whether that process
// is alive. Returns the PID and true if running, or 0 and false otherwise.
func isProcessRunning(pidPath string) (int, bool) {
	pid, err := readPidFile(pidPath)
	if err != nil {
		return 0, false
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return 0, false
	}

	// FindProcess always succeeds on Unix; signal 0 probes for existence.
	if err := process.Signal(syscall.Signal(0)); err != nil {
		return 0, false
	}

	return pid, true
}
