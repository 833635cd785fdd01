package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/marmos91/workersvc/internal/logger"
	"github.com/marmos91/workersvc/pkg/config"
)

// InitLogger replaces the bootstrap logger with the configured one.
func InitLogger(cfg *config.Config) error {
	loggerCfg := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
	if err := logger.Init(loggerCfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// GetDefaultStateDir returns the default state directory path.
func GetDefaultStateDir() string {
	if runtime.GOOS == "windows" {
		if programData := os.Getenv("ProgramData"); programData != "" {
			return filepath.Join(programData, "workersvc")
		}
		return filepath.Join(os.TempDir(), "workersvc")
	}

	stateDir := os.Getenv("XDG_STATE_HOME")
	if stateDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "workersvc")
		}
		stateDir = filepath.Join(homeDir, ".local", "state")
	}
	return filepath.Join(stateDir, "workersvc")
}

// GetDefaultPidFile returns the default PID file path.
func GetDefaultPidFile() string {
	return filepath.Join(GetDefaultStateDir(), "workersvc.pid")
}

// resolvePidFile picks the PID file for stop and status: the flag, else the
// configured path, else the default.
func resolvePidFile(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if cfg, err := config.Load(GetConfigFile()); err == nil && cfg.General.PIDFile != "" {
		return cfg.General.PIDFile
	}
	return GetDefaultPidFile()
}
