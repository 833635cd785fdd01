package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "workersvc %s\n", Version)
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  Commit:     %s\n", Commit)
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  Built:      %s\n", Date)
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  Go version: %s\n", runtime.Version())
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}
