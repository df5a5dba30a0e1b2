package health

import (
	"encoding/json"
	"net/http"

	"github.com/enviweather/envi-advisor/pkg/logger"
)

// HealthResponse is the JSON body of the HTTP health endpoints.
type HealthResponse struct {
	Status  string                 `json:"status"`            // "healthy" | "unhealthy"
	Checks  map[string]CheckStatus `json:"checks,omitempty"`  // keyed by check name
	Message string                 `json:"message,omitempty"` // aggregate failure message
}

// CheckStatus is one check's entry in the HTTP response.
type CheckStatus struct {
	Status  string `json:"status"`            // "ok" | "error"
	Error   string `json:"error,omitempty"`   // set when status is "error"
	Latency string `json:"latency,omitempty"` // human readable latency
}

// LivenessHandler serves the liveness probe. 200 when the process is
// fine, 503 when it should be restarted.
func (h *HealthChecker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := h.CheckLiveness(r.Context())
		h.writeStatus(w, status, err)
	}
}

// ReadinessHandler serves the readiness probe. 200 when the service can
// take traffic, 503 when it cannot.
func (h *HealthChecker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := h.CheckReadiness(r.Context())
		h.writeStatus(w, status, err)
	}
}

func (h *HealthChecker) writeStatus(w http.ResponseWriter, status *HealthStatus, err error) {
	w.Header().Set("Content-Type", "application/json")

	response := HealthResponse{Checks: make(map[string]CheckStatus, len(status.Checks))}

	if status.Healthy {
		response.Status = "healthy"
		w.WriteHeader(http.StatusOK)
	} else {
		response.Status = "unhealthy"
		w.WriteHeader(http.StatusServiceUnavailable)
		if err != nil {
			response.Message = err.Error()
		}
	}

	for _, result := range status.Checks {
		entry := CheckStatus{Latency: result.Latency.String()}
		if result.Healthy {
			entry.Status = "ok"
		} else {
			entry.Status = "error"
			entry.Error = result.Error
		}
		response.Checks[result.Name] = entry
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		if h.logger != nil {
			h.logger.Error("Failed to encode health response",
				logger.ErrorField(err),
			)
		}
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
