package metrics

import (
	"encoding/json"
	"net/http"
	"time"
)

// Status is a point-in-time snapshot of the running service.
type Status struct {
	Service    string `json:"service"`
	State      string `json:"state"`
	RunID      string `json:"run_id,omitempty"`
	Iterations int64  `json:"iterations"`
	Ready      bool   `json:"ready"`
}

// StatusProvider supplies the health endpoint with the current service status.
type StatusProvider interface {
	Status() Status
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
	Error     string    `json:"error,omitempty"`
}

type healthHandler struct {
	status    StatusProvider
	startTime time.Time
}

func newHealthHandler(status StatusProvider) *healthHandler {
	return &healthHandler{status: status, startTime: time.Now()}
}

// Liveness answers 200 as long as the process serves HTTP.
func (h *healthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(h.startTime)
	data := map[string]any{
		"started_at": h.startTime.UTC().Format(time.RFC3339),
		"uptime":     uptime.Round(time.Second).String(),
		"uptime_sec": int64(uptime.Seconds()),
	}
	if h.status != nil {
		data["service"] = h.status.Status().Service
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
}

// Readiness answers 200 while the worker is running and 503 otherwise.
func (h *healthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.status == nil {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{
			Status:    "unhealthy",
			Timestamp: time.Now().UTC(),
			Error:     "service not initialized",
		})
		return
	}

	st := h.status.Status()
	code, label := http.StatusOK, "healthy"
	if !st.Ready {
		code, label = http.StatusServiceUnavailable, "unhealthy"
	}
	writeJSON(w, code, healthResponse{
		Status:    label,
		Timestamp: time.Now().UTC(),
		Data:      st,
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
