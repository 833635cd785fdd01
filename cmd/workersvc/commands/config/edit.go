package config

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
)

var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open configuration in editor",
	Long: `Open the base configuration file in your default editor.

Uses the EDITOR environment variable, then VISUAL, falling back to 'vi'.
A running service applies logging changes on save.

Examples:
  # Edit the configuration next to the executable
  workersvc config edit

  # Edit a specific file
  workersvc config edit --config /etc/workersvc/appsettings.yaml`,
	Args: cobra.NoArgs,
	RunE: runConfigEdit,
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	src, err := resolveSource(cmd)
	if err != nil {
		return err
	}

	configPath := src.PrimaryFile()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return fmt.Errorf("configuration file not found: %s\n\n"+
			"Create it first with:\n"+
			"  workersvc config init",
			configPath)
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		editor = "vi"
	}

	editorCmd := exec.Command(editor, configPath)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("failed to run editor: %w", err)
	}
	return nil
}
