package config

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/workersvc/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Write the default configuration to the base configuration file.

Examples:
  # Create appsettings.yaml next to the executable
  workersvc config init

  # Create a file in a specific directory
  workersvc config init --config /etc/workersvc`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	src, err := resolveSource(cmd)
	if err != nil {
		return err
	}

	path := src.PrimaryFile()
	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("configuration file already exists: %s\n\nUse --force to overwrite it", path)
	}

	if err := config.SaveConfig(config.GetDefaultConfig(), path); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
	return nil
}
