package lifecycle

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/marmos91/workersvc/internal/logger"
	"github.com/marmos91/workersvc/pkg/cancel"
)

// stopSignals returns the OS signals that set sig. SIGTERM is always
// included: it is what systemd and most supervisors send, and on Windows the
// runtime delivers console close, logoff and shutdown as SIGTERM. The
// interrupt (Ctrl-C) is included only for an interactive console.
func stopSignals(interactive bool) []os.Signal {
	sigs := []os.Signal{syscall.SIGTERM}
	if interactive {
		sigs = append(sigs, os.Interrupt)
	}
	return sigs
}

// watchSignals sets sig on the first stop signal. The returned function
// unregisters the handler.
func watchSignals(sig *cancel.Signal, interactive bool) (stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, stopSignals(interactive)...)

	done := make(chan struct{})
	go func() {
		select {
		case s := <-ch:
			logger.Info("Stop signal received", "signal", s.String())
			sig.Set()
		case <-done:
		}
	}()

	return func() {
		signal.Stop(ch)
		close(done)
	}
}
