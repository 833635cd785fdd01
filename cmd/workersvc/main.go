package main

import (
	"os"

	"github.com/marmos91/workersvc/cmd/workersvc/commands"

	// Registers the Prometheus implementations of the worker and host metrics.
	_ "github.com/marmos91/workersvc/pkg/metrics/prometheus"
)

// Build-time variables injected via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.Version = version
	commands.Commit = commit
	commands.Date = date

	os.Exit(commands.Execute())
}
