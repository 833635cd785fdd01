package config

import (
	"strings"
	"time"
)

// Default values not expressed elsewhere.
const (
	DefaultServiceName   = "workersvc"
	DefaultSMTPPort      = 25
	DefaultSMTPTimeout   = 30 * time.Second
	DefaultMetricsPort   = 9090
	DefaultOTLPEndpoint  = "localhost:4317"
	DefaultPyroscopeAddr = "http://localhost:4040"
)

// DefaultProfileTypes suit a worker that spends most of its life waiting:
// CPU for the periodic action, goroutines for where it blocks and live heap
// for growth across iterations.
var DefaultProfileTypes = []string{"cpu", "goroutines", "inuse_space"}

// ApplyDefaults fills zero-valued fields. Explicit values are preserved.
func ApplyDefaults(cfg *Config) {
	applyGeneralDefaults(&cfg.General)
	applyEmailServerDefaults(&cfg.EmailServer)
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyMetricsDefaults(&cfg.Metrics)
}

func applyGeneralDefaults(cfg *GeneralConfig) {
	cfg.DefaultServiceName = strings.TrimSpace(cfg.DefaultServiceName)
	if cfg.DefaultServiceName == "" {
		cfg.DefaultServiceName = DefaultServiceName
	}
}

func applyEmailServerDefaults(cfg *EmailServerConfig) {
	if cfg.Port == 0 {
		cfg.Port = DefaultSMTPPort
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultSMTPTimeout
	}
}

// applyLoggingDefaults also normalizes the level to uppercase.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultOTLPEndpoint
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}

	if cfg.Profiling.Endpoint == "" {
		cfg.Profiling.Endpoint = DefaultPyroscopeAddr
	}
	if len(cfg.Profiling.ProfileTypes) == 0 {
		cfg.Profiling.ProfileTypes = append([]string(nil), DefaultProfileTypes...)
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Port == 0 {
		cfg.Port = DefaultMetricsPort
	}
}

// GetDefaultConfig returns a Config with every default applied. Telemetry
// is insecure by default for local collectors.
func GetDefaultConfig() *Config {
	cfg := &Config{
		Telemetry: TelemetryConfig{Insecure: true},
	}
	ApplyDefaults(cfg)
	return cfg
}
