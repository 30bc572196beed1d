package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// handleAchievements returns a player's full achievement history plus the
// aggregate counters. A player with no achievements gets an empty summary,
// not a 404.
func handleAchievements(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := playerFromRequest(r, store); err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}

		playerID := chi.URLParam(r, "playerID")
		if uuid.Validate(playerID) != nil {
			writeError(w, http.StatusBadRequest, "invalid player id")
			return
		}

		summary, err := achievementSummary(r.Context(), store, playerID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}
