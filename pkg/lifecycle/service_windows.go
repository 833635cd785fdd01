//go:build windows

package lifecycle

import (
	"fmt"

	"golang.org/x/sys/windows/svc"

	"github.com/marmos91/workersvc/internal/logger"
	"github.com/marmos91/workersvc/pkg/cancel"
	"github.com/marmos91/workersvc/pkg/worker"
)

// runService attaches to the Service Control Manager when started by it and
// runs the host directly otherwise.
func runService(name string, sig *cancel.Signal, run func() worker.Outcome) worker.Outcome {
	isService, err := svc.IsWindowsService()
	if err != nil {
		logger.Warn("Cannot determine whether running as a Windows service", logger.Err(err))
	}
	if !isService {
		return run()
	}

	h := &scmHandler{sig: sig, run: run}
	if err := svc.Run(name, h); err != nil {
		logger.Error("Service control dispatcher failed", logger.Err(err))
		sig.Set()
		return worker.FaultedWith(fmt.Errorf("service control dispatcher: %w", err), 0)
	}
	return h.outcome
}

// scmHandler implements svc.Handler. Stop and Shutdown set the same signal
// as Ctrl-C; the handler then waits for the worker without a deadline.
type scmHandler struct {
	sig     *cancel.Signal
	run     func() worker.Outcome
	outcome worker.Outcome
}

func (h *scmHandler) Execute(_ []string, r <-chan svc.ChangeRequest, changes chan<- svc.Status) (bool, uint32) {
	const accepted = svc.AcceptStop | svc.AcceptShutdown

	changes <- svc.Status{State: svc.StartPending}

	done := make(chan worker.Outcome, 1)
	go func() { done <- h.run() }()

	changes <- svc.Status{State: svc.Running, Accepts: accepted}

	for {
		select {
		case c := <-r:
			switch c.Cmd {
			case svc.Interrogate:
				changes <- c.CurrentStatus
			case svc.Stop, svc.Shutdown:
				logger.Info("Service control request received", "command", c.Cmd)
				changes <- svc.Status{State: svc.StopPending}
				h.sig.Set()
			}
		case h.outcome = <-done:
			// svc reports Stopped itself with this service-specific exit code.
			// Sending Stopped here would reach the SCM first with NO_ERROR.
			return true, ExitCode
		}
	}
}
