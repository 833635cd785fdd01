package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyDefaults_FillsZeroValues(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, DefaultServiceName, cfg.General.DefaultServiceName)
	assert.Equal(t, DefaultSMTPPort, cfg.EmailServer.Port)
	assert.Equal(t, DefaultSMTPTimeout, cfg.EmailServer.Timeout)
	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "stdout", cfg.Logging.Output)
	assert.Equal(t, DefaultOTLPEndpoint, cfg.Telemetry.Endpoint)
	assert.Equal(t, 1.0, cfg.Telemetry.SampleRate)
	assert.Equal(t, DefaultPyroscopeAddr, cfg.Telemetry.Profiling.Endpoint)
	assert.Equal(t, DefaultProfileTypes, cfg.Telemetry.Profiling.ProfileTypes)
	assert.Equal(t, DefaultMetricsPort, cfg.Metrics.Port)
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		General:     GeneralConfig{DefaultServiceName: "  Mine  "},
		EmailServer: EmailServerConfig{Port: 465},
		Logging:     LoggingConfig{Level: "debug", Format: "json", Output: "/var/log/svc.log"},
		Metrics:     MetricsConfig{Port: 9100},
	}
	ApplyDefaults(cfg)

	assert.Equal(t, "Mine", cfg.General.DefaultServiceName)
	assert.Equal(t, 465, cfg.EmailServer.Port)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "/var/log/svc.log", cfg.Logging.Output)
	assert.Equal(t, 9100, cfg.Metrics.Port)
}

func TestGetDefaultConfig_IsValid(t *testing.T) {
	cfg := GetDefaultConfig()
	assert.NoError(t, Validate(cfg))
	assert.True(t, cfg.Telemetry.Insecure)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.False(t, cfg.Metrics.Enabled)
}
