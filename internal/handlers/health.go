package handlers

import (
	"net/http"
	"runtime"
	"time"

	"alltube/internal/version"
)

const statusHealthy = "healthy"

// HealthResponse contains the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`

	HistoryEnabled bool `json:"historyEnabled"`

	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the service. The service is
// ready as soon as it is listening; the transcoder binary is probed lazily
// on first use, so a broken ffmpeg surfaces per-request, not here.
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	response := HealthResponse{
		Status:         statusHealthy,
		Version:        version.Version,
		Uptime:         time.Since(h.start).Round(time.Second).String(),
		HistoryEnabled: h.history != nil,
		GoVersion:      runtime.Version(),
		NumCPU:         runtime.NumCPU(),
		NumGoroutine:   runtime.NumGoroutine(),
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, response)
}
