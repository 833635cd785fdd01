// Package config loads the workersvc configuration.
//
// Configuration sources (lowest to highest precedence):
//  1. Default values
//  2. appsettings.{json,yaml,yml}
//  3. appsettings.user.*
//  4. appsettings.<environment>.*
//  5. appsettings.<environment>.user.*
//  6. Environment variables (WORKERSVC_<SECTION>_<KEY>)
//
// Every file is optional. The environment name comes from
// WORKERSVC_ENVIRONMENT and defaults to "development".
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "WORKERSVC"

// Config is the static configuration of the service. Execution options come
// from the command line and are not part of it.
type Config struct {
	// General holds service identity settings
	General GeneralConfig `mapstructure:"general" yaml:"general" json:"general"`

	// Worker holds the startup notification settings
	Worker WorkerConfig `mapstructure:"worker" yaml:"worker" json:"worker"`

	// EmailServer is the SMTP server used for notifications
	EmailServer EmailServerConfig `mapstructure:"email_server" yaml:"email_server" json:"email_server"`

	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging" json:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry" json:"telemetry"`
	Metrics   MetricsConfig   `mapstructure:"metrics" yaml:"metrics" json:"metrics"`
}

// GeneralConfig holds service identity settings.
type GeneralConfig struct {
	// DefaultServiceName is the name used with the service manager when
	// --service-name is not given.
	DefaultServiceName string `mapstructure:"default_service_name" validate:"required" yaml:"default_service_name" json:"default_service_name"`

	// PIDFile guards against a second instance. Empty uses the state dir.
	PIDFile string `mapstructure:"pid_file" yaml:"pid_file" json:"pid_file,omitempty"`
}

// WorkerConfig controls the startup notification. Blank addresses mean no
// notification is sent.
type WorkerConfig struct {
	MessageIsEnabled        bool   `mapstructure:"message_is_enabled" yaml:"message_is_enabled" json:"message_is_enabled"`
	MessageFromEmailAddress string `mapstructure:"message_from_email_address" yaml:"message_from_email_address" json:"message_from_email_address,omitempty"`
	MessageToEmailAddress   string `mapstructure:"message_to_email_address" yaml:"message_to_email_address" json:"message_to_email_address,omitempty"`
}

// EmailServerConfig describes the SMTP server.
type EmailServerConfig struct {
	Host      string `mapstructure:"host" yaml:"host" json:"host,omitempty"`
	Port      int    `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port" json:"port,omitempty"`
	EnableSSL bool   `mapstructure:"enable_ssl" yaml:"enable_ssl" json:"enable_ssl"`
	Username  string `mapstructure:"username" yaml:"username" json:"username,omitempty"`

	// Password is best supplied as WORKERSVC_EMAIL_SERVER_PASSWORD or in a
	// .user overlay kept out of source control.
	Password string `mapstructure:"password" yaml:"password" json:"password,omitempty"`

	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0" yaml:"timeout" json:"timeout,omitempty" jsonschema:"type=string"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is one of DEBUG, INFO, WARN, ERROR (case-insensitive)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level" json:"level"`

	// Format is text or json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format" json:"format"`

	// Output is stdout, stderr or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output" json:"output"`
}

// TelemetryConfig controls OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Endpoint string `mapstructure:"endpoint" validate:"required_if=Enabled true" yaml:"endpoint" json:"endpoint"`
	Insecure bool   `mapstructure:"insecure" yaml:"insecure" json:"insecure"`

	// SampleRate is the fraction of runs traced, 0.0 to 1.0
	SampleRate float64 `mapstructure:"sample_rate" validate:"gte=0,lte=1" yaml:"sample_rate" json:"sample_rate"`

	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling" json:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	Enabled      bool     `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Endpoint     string   `mapstructure:"endpoint" validate:"required_if=Enabled true" yaml:"endpoint" json:"endpoint"`

	// ProfileTypes defaults to DefaultProfileTypes.
	ProfileTypes []string `mapstructure:"profile_types" validate:"dive,oneof=cpu alloc_objects alloc_space inuse_objects inuse_space goroutines mutex_count mutex_duration block_count block_duration" yaml:"profile_types" json:"profile_types"`
}

// MetricsConfig controls the Prometheus metrics and health server.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Port    int  `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port" json:"port"`
}

// Load resolves the configuration sources for path and loads them with the
// environment named by WORKERSVC_ENVIRONMENT. An empty path means the
// directory of the executable.
func Load(path string) (*Config, error) {
	env, err := EnvironmentName()
	if err != nil {
		return nil, err
	}
	src, err := ResolveSource(path, env)
	if err != nil {
		return nil, err
	}
	cfg, _, err := LoadFrom(src)
	return cfg, err
}

// LoadFrom merges the layered files of src over the defaults, applies
// environment overrides, then validates. It returns the files that were
// merged, in precedence order.
func LoadFrom(src Source) (*Config, []string, error) {
	v := viper.New()
	setupViper(v)

	if err := readDefaults(v); err != nil {
		return nil, nil, err
	}

	files := src.Files()
	for _, f := range files {
		v.SetConfigFile(f)
		v.SetConfigType(strings.TrimPrefix(filepath.Ext(f), "."))
		if err := v.MergeInConfig(); err != nil {
			return nil, nil, fmt.Errorf("failed to read config file %s: %w", f, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, files, nil
}

// SaveConfig writes cfg as YAML with owner-only permissions, since it may
// hold SMTP credentials.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// setupViper enables WORKERSVC_-prefixed environment overrides, e.g.
// WORKERSVC_LOGGING_LEVEL=DEBUG.
func setupViper(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// readDefaults seeds v with the default configuration so every key is known
// to viper and can be overridden from the environment.
func readDefaults(v *viper.Viper) error {
	data, err := yaml.Marshal(GetDefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal defaults: %w", err)
	}
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to read defaults: %w", err)
	}
	return nil
}

func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// durationDecodeHook accepts "30s"-style strings and plain nanosecond counts.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// ErrNoExecutableDir is returned when the executable location is unknown.
var ErrNoExecutableDir = errors.New("cannot determine executable directory")

// executableDir is the default base directory. A service's working
// directory is rarely its install directory.
func executableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoExecutableDir, err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}
