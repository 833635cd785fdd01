// Package config implements configuration management subcommands.
package config

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/workersvc/pkg/config"
)

// Cmd is the config subcommand.
var Cmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
	Long: `Manage workersvc configuration files.

Configuration is layered: appsettings, appsettings.user,
appsettings.<environment> and appsettings.<environment>.user, then
WORKERSVC_* environment variables. The environment name comes from
WORKERSVC_ENVIRONMENT (default: development).

Subcommands:
  init      Write a configuration file with the defaults
  edit      Open the base configuration file in an editor
  validate  Validate the layered configuration
  show      Display the effective configuration
  schema    Generate JSON schema for IDE/validation`,
}

func init() {
	Cmd.AddCommand(initCmd)
	Cmd.AddCommand(editCmd)
	Cmd.AddCommand(validateCmd)
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(schemaCmd)
}

// resolveSource maps the inherited --config flag to the configuration source.
func resolveSource(cmd *cobra.Command) (config.Source, error) {
	configPath, _ := cmd.Flags().GetString("config")

	env, err := config.EnvironmentName()
	if err != nil {
		return config.Source{}, err
	}
	return config.ResolveSource(configPath, env)
}
