package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"dos-ui/internal/domain"
)

// Health returns basic health check
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
	})
}

// HealthCheckResult represents the result of a dependency check
type HealthCheckResult struct {
	Status    string `json:"status"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Ready returns readiness including session store connectivity.
func Ready(store domain.SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		storeCheck := checkSessionStore(ctx, store)

		response := map[string]any{
			"timestamp": time.Now().Format(time.RFC3339),
			"checks": map[string]HealthCheckResult{
				"session_store": storeCheck,
			},
		}

		w.Header().Set("Content-Type", "application/json")
		if storeCheck.Status == "up" {
			response["status"] = "ready"
			w.WriteHeader(http.StatusOK)
		} else {
			response["status"] = "not_ready"
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		_ = json.NewEncoder(w).Encode(response)
	}
}

// checkSessionStore probes the store with a read for a sentinel ID; a
// not-found result still proves the table is reachable.
func checkSessionStore(ctx context.Context, store domain.SessionStore) HealthCheckResult {
	start := time.Now()
	_, err := store.Get(ctx, "readiness-probe")
	latency := time.Since(start)

	if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		return HealthCheckResult{
			Status:    "down",
			LatencyMs: latency.Milliseconds(),
			Error:     err.Error(),
		}
	}

	return HealthCheckResult{
		Status:    "up",
		LatencyMs: latency.Milliseconds(),
	}
}
