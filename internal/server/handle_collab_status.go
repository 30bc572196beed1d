package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// handleCollabStatus returns a read-only snapshot of the live collaborative
// attempt on a clue. The read is just-in-time: stale attempts are expired
// before the snapshot so a poller never sees an attempt past its deadline
// as waiting.
func handleCollabStatus(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := playerFromRequest(r, store); err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}

		clueID := chi.URLParam(r, "clueID")
		if uuid.Validate(clueID) != nil {
			writeError(w, http.StatusBadRequest, "invalid clue id")
			return
		}

		clue, err := store.GetClue(r.Context(), clueID)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "clue not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !clue.Collaborative {
			writeError(w, http.StatusBadRequest, "clue is not collaborative")
			return
		}

		// A discovered clue has no live attempt anymore; report the
		// completion instead of an empty waiting room.
		if clue.Status == clueDiscovered {
			writeJSON(w, http.StatusOK, CollabStatus{
				Status:          collabCompleted,
				ParticipantIDs:  []string{},
				RequiredPlayers: clue.RequiredPlayers,
				TimeRemaining:   "0:00",
			})
			return
		}

		if err := store.ExpireStaleAttempts(r.Context(), clue.ID); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		attempt, err := store.ActiveAttempt(r.Context(), clue.ID)
		if errors.Is(err, ErrNotFound) {
			writeJSON(w, http.StatusOK, CollabStatus{
				Status:          collabWaiting,
				ParticipantIDs:  []string{},
				RequiredPlayers: clue.RequiredPlayers,
				PlayersNeeded:   clue.RequiredPlayers,
			})
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, snapshotAttempt(attempt, false))
	}
}
