package commands

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/workersvc/internal/cli/output"
	"github.com/marmos91/workersvc/pkg/config"
	"github.com/marmos91/workersvc/pkg/metrics"
)

var (
	statusOutput  string
	statusPidFile string
	statusPort    int
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show service status",
	Long: `Display the status of a running workersvc instance.

The PID file tells whether the process is alive. When the metrics server is
enabled the readiness endpoint adds the host state, run id and iteration
count.

Examples:
  # Check status
  workersvc status

  # Query a metrics server on another port
  workersvc status --metrics-port 9191

  # Output as JSON
  workersvc status --output json`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusPidFile, "pid-file", "", "Path to PID file (default: general.pid_file or $XDG_STATE_HOME/workersvc/workersvc.pid)")
	statusCmd.Flags().IntVar(&statusPort, "metrics-port", 0, "Metrics server port (default: metrics.port)")
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

// ServiceStatus is the result of the status command.
type ServiceStatus struct {
	Running    bool   `json:"running" yaml:"running"`
	PID        int    `json:"pid,omitempty" yaml:"pid,omitempty"`
	Service    string `json:"service,omitempty" yaml:"service,omitempty"`
	State      string `json:"state,omitempty" yaml:"state,omitempty"`
	RunID      string `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Iterations int64  `json:"iterations" yaml:"iterations"`
	Ready      bool   `json:"ready" yaml:"ready"`
	Message    string `json:"message" yaml:"message"`
}

// Pairs implements output.TableRenderer.
func (s ServiceStatus) Pairs() [][2]string {
	status := "\033[31m○ Stopped\033[0m"
	if s.Running {
		status = "\033[32m● Running\033[0m"
		if !s.Ready {
			status = "\033[33m● Running (not ready)\033[0m"
		}
	}

	pairs := [][2]string{{"Status", status}}
	if s.PID > 0 {
		pairs = append(pairs, [2]string{"PID", strconv.Itoa(s.PID)})
	}
	if s.Service != "" {
		pairs = append(pairs,
			[2]string{"Service", s.Service},
			[2]string{"State", s.State},
			[2]string{"Run ID", s.RunID},
			[2]string{"Iterations", strconv.FormatInt(s.Iterations, 10)},
		)
	}
	return append(pairs, [2]string{"Message", s.Message})
}

// readinessResponse mirrors the body of GET /health/ready.
type readinessResponse struct {
	Status string         `json:"status"`
	Data   metrics.Status `json:"data"`
	Error  string         `json:"error"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(statusOutput)
	if err != nil {
		return err
	}

	port := statusPort
	if port == 0 {
		port = config.DefaultMetricsPort
		if cfg, err := config.Load(GetConfigFile()); err == nil {
			port = cfg.Metrics.Port
		}
	}

	status := collectStatus(resolvePidFile(statusPidFile), fmt.Sprintf("http://localhost:%d", port))
	return output.Print(cmd.OutOrStdout(), format, status)
}

// collectStatus combines the PID file with the readiness endpoint at baseURL.
func collectStatus(pidPath, baseURL string) ServiceStatus {
	status := ServiceStatus{Message: "Service is not running"}

	if pid, running := isProcessRunning(pidPath); running {
		status.Running = true
		status.PID = pid
		status.Message = "Service process is running; metrics server unreachable"
	}

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/health/ready")
	if err != nil {
		return status
	}
	defer func() { _ = resp.Body.Close() }()

	var ready readinessResponse
	if err := json.NewDecoder(resp.Body).Decode(&ready); err != nil {
		status.Running = true
		status.Message = "Service is running but the readiness response is invalid"
		return status
	}

	status.Running = true
	status.Ready = resp.StatusCode == http.StatusOK
	status.Service = ready.Data.Service
	status.State = ready.Data.State
	status.RunID = ready.Data.RunID
	status.Iterations = ready.Data.Iterations

	switch {
	case status.Ready:
		status.Message = "Service is running"
	case ready.Error != "":
		status.Message = fmt.Sprintf("Service is not ready: %s", ready.Error)
	default:
		status.Message = fmt.Sprintf("Service is not ready (state %s)", status.State)
	}
	return status
}
