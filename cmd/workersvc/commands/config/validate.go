package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/workersvc/pkg/config"
	"github.com/marmos91/workersvc/pkg/worker"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long: `Validate the layered workersvc configuration.

Checks for syntax errors, missing required fields and invalid values, and
warns about settings that silently disable the startup notification.

Examples:
  # Validate the configuration next to the executable
  workersvc config validate

  # Validate the production overlays
  WORKERSVC_ENVIRONMENT=Production workersvc config validate --config /etc/workersvc`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	src, err := resolveSource(cmd)
	if err != nil {
		return err
	}

	cfg, files, err := config.LoadFrom(src)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Environment: %s\n", src.Environment)
	if len(files) == 0 {
		_, _ = fmt.Fprintf(out, "Configuration files: none in %s (defaults only)\n", src.Dir)
	} else {
		_, _ = fmt.Fprintln(out, "Configuration files:")
		for _, f := range files {
			_, _ = fmt.Fprintf(out, "  - %s\n", f)
		}
	}
	_, _ = fmt.Fprintln(out, "Validation: OK")

	if warnings := configWarnings(cfg); len(warnings) > 0 {
		_, _ = fmt.Fprintln(out, "\nWarnings:")
		for _, w := range warnings {
			_, _ = fmt.Fprintf(out, "  - %s\n", w)
		}
	}

	_, _ = fmt.Fprintf(out, "\nConfiguration summary:\n")
	_, _ = fmt.Fprintf(out, "  Service name:    %s\n", cfg.General.DefaultServiceName)
	_, _ = fmt.Fprintf(out, "  Notification:    %t\n", cfg.Worker.MessageIsEnabled)
	_, _ = fmt.Fprintf(out, "  Log level:       %s\n", cfg.Logging.Level)
	_, _ = fmt.Fprintf(out, "  Metrics:         %t\n", cfg.Metrics.Enabled)
	_, _ = fmt.Fprintf(out, "  Tracing:         %t\n", cfg.Telemetry.Enabled)

	return nil
}

// configWarnings lists valid settings that will not behave as the operator
// probably expects.
func configWarnings(cfg *config.Config) []string {
	if !cfg.Worker.MessageIsEnabled {
		return nil
	}

	var warnings []string
	settings := worker.NotificationSettings{
		Enabled: true,
		From:    cfg.Worker.MessageFromEmailAddress,
		To:      cfg.Worker.MessageToEmailAddress,
	}
	if err := settings.Validate(); err != nil {
		warnings = append(warnings, fmt.Sprintf("notification enabled but will be skipped: %v", err))
	}
	if cfg.EmailServer.Host == "" {
		warnings = append(warnings, "notification enabled but email_server.host is not set")
	}
	return warnings
}
