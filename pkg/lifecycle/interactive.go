package lifecycle

import (
	"os"

	"golang.org/x/term"
)

// IsInteractive reports whether the process is attached to a console, which
// is never the case when started by a service manager.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) || term.IsTerminal(int(os.Stdout.Fd()))
}
