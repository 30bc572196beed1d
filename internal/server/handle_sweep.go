package server

import (
	"log/slog"
	"net/http"
)

// handleAdminSweep runs one expiry sweep on demand, outside the scheduler's
// cadence.
func handleAdminSweep(store Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result := RunExpirySweep(r.Context(), store, logger)
		writeJSON(w, http.StatusOK, result)
	}
}
