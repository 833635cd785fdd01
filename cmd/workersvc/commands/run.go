package commands

import (
	"context"
	"errors"
	"reflect"
	"time"

	"github.com/marmos91/workersvc/internal/logger"
	"github.com/marmos91/workersvc/internal/telemetry"
	"github.com/marmos91/workersvc/pkg/config"
	"github.com/marmos91/workersvc/pkg/lifecycle"
	"github.com/marmos91/workersvc/pkg/metrics"
	"github.com/marmos91/workersvc/pkg/notify/smtp"
	"github.com/marmos91/workersvc/pkg/worker"
)

// serviceOptions are the execution options taken from the command line.
type serviceOptions struct {
	ConfigPath  string
	ServiceName string
	Interval    time.Duration
}

// serve runs the service and returns its exit code. A non-nil error means
// the service was never started. Tests replace it to observe the command
// line without running the service.
var serve = runService

func runService(ctx context.Context, opts serviceOptions) (int, error) {
	env, err := config.EnvironmentName()
	if err != nil {
		return 0, &UsageError{Err: err}
	}
	src, err := config.ResolveSource(opts.ConfigPath, env)
	if err != nil {
		return 0, &UsageError{Err: err}
	}
	cfg, files, err := config.LoadFrom(src)
	if err != nil {
		return 0, &UsageError{Err: err}
	}

	if err := InitLogger(cfg); err != nil {
		return 0, err
	}
	defer func() { _ = logger.Close() }()

	name := opts.ServiceName
	if name == "" {
		name = cfg.General.DefaultServiceName
	}

	logger.Debug("Configuration loaded",
		logger.KeyEnvironment, env,
		logger.KeyPath, src.Dir,
		"files", files,
	)

	shutdownTracing, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    name,
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		logger.Error("Failed to initialize telemetry", logger.Err(err))
		return lifecycle.ExitCode, nil
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("Telemetry shutdown error", logger.Err(err))
		}
	}()

	stopProfiling, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    name,
		ServiceVersion: Version,
		Environment:    env,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	})
	if err != nil {
		logger.Error("Failed to initialize profiling", logger.Err(err))
		return lifecycle.ExitCode, nil
	}
	defer func() { _ = stopProfiling() }()

	pidPath := cfg.General.PIDFile
	if pidPath == "" {
		pidPath = GetDefaultPidFile()
	}
	releasePID, err := acquirePidFile(pidPath)
	if err != nil {
		logger.Error("Failed to acquire PID file", logger.KeyPath, pidPath, logger.Err(err))
		return lifecycle.ExitCode, nil
	}
	defer releasePID()

	var (
		workerMetrics metrics.WorkerMetrics
		hostMetrics   metrics.HostMetrics
	)
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		workerMetrics = metrics.NewWorkerMetrics()
		hostMetrics = metrics.NewHostMetrics()
	}

	orch := lifecycle.New(lifecycle.Options{
		ServiceName: name,
		Environment: env,
		Interactive: lifecycle.IsInteractive(),
		Worker: worker.Config{
			ServiceName: name,
			Options:     worker.Options{Interval: opts.Interval},
			Notification: worker.NotificationSettings{
				Enabled: cfg.Worker.MessageIsEnabled,
				From:    cfg.Worker.MessageFromEmailAddress,
				To:      cfg.Worker.MessageToEmailAddress,
			},
			Sender:  newNotificationSender(cfg),
			Metrics: workerMetrics,
		},
		HostMetrics: hostMetrics,
	})

	bgCtx, stopBackground := context.WithCancel(ctx)
	defer stopBackground()

	if cfg.Metrics.Enabled {
		srv := metrics.NewServer(metrics.ServerConfig{Port: cfg.Metrics.Port}, orch)
		go func() {
			if err := srv.Start(bgCtx); err != nil {
				logger.Error("Metrics server error", logger.Err(err))
			}
		}()
	}

	if w, err := config.NewWatcher(src, reloadHandler(cfg)); err != nil {
		logger.Warn("Configuration changes will not be picked up", logger.Err(err))
	} else {
		go w.Run(bgCtx)
	}

	return orch.Run(ctx), nil
}

// newNotificationSender returns nil when no SMTP server is configured, in
// which case the worker skips the notification.
func newNotificationSender(cfg *config.Config) worker.NotificationSender {
	sender, err := smtp.NewSender(smtp.Config{
		Host:      cfg.EmailServer.Host,
		Port:      cfg.EmailServer.Port,
		EnableSSL: cfg.EmailServer.EnableSSL,
		Username:  cfg.EmailServer.Username,
		Password:  cfg.EmailServer.Password,
		Timeout:   cfg.EmailServer.Timeout,
	})
	if err != nil {
		if cfg.Worker.MessageIsEnabled || !errors.Is(err, smtp.ErrNoHost) {
			logger.Warn("Notifications disabled: email server unusable", logger.Err(err))
		}
		return nil
	}
	return sender
}

// reloadHandler applies logging changes live. Every other setting is fixed
// for the life of the process.
func reloadHandler(initial *config.Config) config.ReloadFunc {
	applied := *initial
	return func(cfg *config.Config, files []string, err error) {
		if err != nil {
			logger.Warn("Ignoring invalid configuration change", logger.Err(err))
			return
		}

		if cfg.Logging.Level != applied.Logging.Level {
			logger.SetLevel(cfg.Logging.Level)
			logger.Info("Log level changed", "level", cfg.Logging.Level)
		}
		if cfg.Logging.Format != applied.Logging.Format {
			logger.SetFormat(cfg.Logging.Format)
			logger.Info("Log format changed", "format", cfg.Logging.Format)
		}

		if requiresRestart(&applied, cfg) {
			logger.Warn("Configuration changed; restart the service to apply it", "files", files)
		}

		applied = *cfg
	}
}

// requiresRestart reports whether next differs from current outside the
// live-reloadable logging level and format.
func requiresRestart(current, next *config.Config) bool {
	a, b := *current, *next
	a.Logging.Level, b.Logging.Level = "", ""
	a.Logging.Format, b.Logging.Format = "", ""
	return !reflect.DeepEqual(a, b)
}
