package handler

import (
	"net/http"

	"github.com/zkBob/bob-circulating-supply/internal/health"
)

// Health renders the aggregated health document across all registered
// workers.
func Health(registry *health.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, registry.Publish())
	}
}

// Healthz is a plain liveness probe.
func Healthz() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
