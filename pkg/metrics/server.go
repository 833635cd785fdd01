package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/marmos91/workersvc/internal/logger"
)

// DefaultPort is the metrics server port used when none is configured.
const DefaultPort = 9090

// ServerConfig configures the metrics and health HTTP server.
type ServerConfig struct {
	// Port is the TCP port to listen on. Zero means DefaultPort.
	Port int

	// ReadTimeout and WriteTimeout bound a single request.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func (c *ServerConfig) applyDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10 * time.Second
	}
}

// Server exposes Prometheus metrics and health probes over HTTP.
//
// Endpoints:
//   - GET /metrics: Prometheus exposition
//   - GET /health: Liveness probe
//   - GET /health/ready: Readiness probe (200 only while the worker is running)
type Server struct {
	server       *http.Server
	config       ServerConfig
	shutdownOnce sync.Once
}

// NewServer creates a stopped metrics server. status may be nil, in which case
// readiness always reports unavailable.
func NewServer(config ServerConfig, status StatusProvider) *Server {
	config.applyDefaults()

	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", config.Port),
			Handler:      NewRouter(GetRegistry(), status),
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
		},
		config: config,
	}
}

// Start serves until ctx is cancelled or the listener fails. Cancellation
// triggers a graceful shutdown and a nil return.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info("Metrics server listening", "port", s.config.Port)

		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case errChan <- err:
			default:
			}
		}
	}()

	select {
	case <-ctx.Done():
		// ctx is already done; shutdown needs its own deadline.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("metrics server failed: %w", err)
	}
}

// Stop shuts the server down gracefully. Safe to call more than once.
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("metrics server shutdown error: %w", err)
			logger.Error("Metrics server shutdown error", logger.Err(err))
			return
		}
		logger.Debug("Metrics server stopped")
	})
	return shutdownErr
}

// Port returns the configured TCP port.
func (s *Server) Port() int {
	return s.config.Port
}
