package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var errProcessDone = errors.New("process already finished")

// readPidFile returns the PID stored at path.
func readPidFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid PID in file %s: %q", path, strings.TrimSpace(string(data)))
	}
	return pid, nil
}

// acquirePidFile records the current PID at path and returns a func that
// removes it. It fails when the recorded process is still alive; a stale file
// is replaced.
func acquirePidFile(path string) (func(), error) {
	if pid, running := isProcessRunning(path); running {
		return nil, fmt.Errorf("workersvc is already running (PID %d)\nUse 'workersvc stop' to stop the running instance", pid)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create PID file directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0644); err != nil {
		return nil, fmt.Errorf("failed to write PID file: %w", err)
	}

	return func() {
		if pid, err := readPidFile(path); err == nil && pid == os.Getpid() {
			_ = os.Remove(path)
		}
	}, nil
}
