// Package health serves liveness and status probes for the mock iProov server.
package health

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// CallCounter reports how many API calls have been served.
type CallCounter func() int

// Handler provides the health endpoints.
type Handler struct {
	service   string
	version   string
	startTime time.Time
	calls     CallCounter
}

// New creates a health handler. calls may be nil.
func New(service, version string, calls CallCounter) *Handler {
	return &Handler{
		service:   service,
		version:   version,
		startTime: time.Now(),
		calls:     calls,
	}
}

// Register mounts the health routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/health", h.HandleStatus)
	r.Get("/health/live", h.HandleLiveness)
}

// LivenessResponse is the liveness probe body.
type LivenessResponse struct {
	Status string `json:"status"`
}

// HandleLiveness always answers 200 while the process is up.
func (h *Handler) HandleLiveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, LivenessResponse{Status: "alive"})
}

// StatusResponse is the status probe body.
type StatusResponse struct {
	Status        string `json:"status"`
	Service       string `json:"service"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Calls         int    `json:"calls"`
	Timestamp     string `json:"timestamp"`
}

// HandleStatus reports version, uptime and the number of API calls served.
func (h *Handler) HandleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := StatusResponse{
		Status:        "healthy",
		Service:       h.service,
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}
	if h.calls != nil {
		resp.Calls = h.calls()
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
