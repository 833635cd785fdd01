//go:build !windows

package lifecycle

import (
	"github.com/marmos91/workersvc/pkg/cancel"
	"github.com/marmos91/workersvc/pkg/worker"
)

// runService runs the host directly. Outside Windows the service manager
// talks to the process through signals only.
func runService(_ string, _ *cancel.Signal, run func() worker.Outcome) worker.Outcome {
	return run()
}
