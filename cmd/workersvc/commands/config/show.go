package config

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/workersvc/internal/cli/output"
	"github.com/marmos91/workersvc/pkg/config"
)

var (
	showOutput      string
	showWithSecrets bool
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the effective configuration",
	Long: `Display the configuration after every layer and environment override
has been applied.

By default outputs YAML format and masks the SMTP password.

Examples:
  # Show as YAML
  workersvc config show

  # Show as JSON
  workersvc config show --output json`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

func init() {
	showCmd.Flags().StringVarP(&showOutput, "output", "o", "yaml", "Output format (yaml|json)")
	showCmd.Flags().BoolVar(&showWithSecrets, "show-secrets", false, "Print the SMTP password in clear")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	src, err := resolveSource(cmd)
	if err != nil {
		return err
	}

	cfg, _, err := config.LoadFrom(src)
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(showOutput)
	if err != nil {
		return err
	}

	if !showWithSecrets && cfg.EmailServer.Password != "" {
		cfg.EmailServer.Password = "********"
	}

	if format == output.FormatJSON {
		return output.PrintJSON(cmd.OutOrStdout(), cfg)
	}
	return output.PrintYAML(cmd.OutOrStdout(), cfg)
}
