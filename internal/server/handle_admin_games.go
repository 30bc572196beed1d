package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cluechase/api/internal/geo"
)

const (
	defaultMaxPlayers       = 20
	defaultCollabWindowMins = 5
)

func (req *AdminGameRequest) validate() string {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return "name is required"
	}
	if req.MaxPlayers <= 0 {
		req.MaxPlayers = defaultMaxPlayers
	}
	if len(req.Clues) == 0 {
		return "at least one clue is required"
	}
	for i := range req.Clues {
		if msg := req.Clues[i].validate(i); msg != "" {
			return msg
		}
	}
	return ""
}

func (req *AdminClueRequest) validate(i int) string {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return fmt.Sprintf("clue %d: title is required", i)
	}
	if !(geo.Point{Lat: req.Lat, Lng: req.Lng}).Valid() {
		return fmt.Sprintf("clue %d: coordinates out of range", i)
	}
	if req.RadiusM <= 0 {
		return fmt.Sprintf("clue %d: radiusMeters must be positive", i)
	}
	if req.Collaborative {
		if req.RequiredPlayers < 2 {
			return fmt.Sprintf("clue %d: collaborative clue needs requiredPlayers >= 2", i)
		}
		if req.TimeLimitMinutes <= 0 {
			req.TimeLimitMinutes = defaultCollabWindowMins
		}
	} else {
		req.RequiredPlayers = 0
		req.TimeLimitMinutes = 0
	}
	return ""
}

func handleAdminListGames(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		games, err := store.ListGames(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if games == nil {
			games = []AdminGameSummary{}
		}
		writeJSON(w, http.StatusOK, games)
	}
}

func handleAdminCreateGame(store Store, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := adminFrom(r)

		var req AdminGameRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if msg := req.validate(); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		detail, err := store.CreateGame(r.Context(), req, sess.AdminID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		broker.Publish(gameScope(detail.ID), Event{
			Type:   eventGameCreated,
			GameID: detail.ID,
			Status: detail.Status,
		})

		writeJSON(w, http.StatusCreated, detail)
	}
}

func handleAdminGetGame(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID := chi.URLParam(r, "gameID")
		if uuid.Validate(gameID) != nil {
			writeError(w, http.StatusBadRequest, "invalid game id")
			return
		}

		detail, err := store.GameDetail(r.Context(), gameID)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "game not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, detail)
	}
}

func handleAdminStartGame(store Store, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID := chi.URLParam(r, "gameID")
		if uuid.Validate(gameID) != nil {
			writeError(w, http.StatusBadRequest, "invalid game id")
			return
		}

		started, err := store.StartGame(r.Context(), gameID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !started {
			if _, err := store.GetGame(r.Context(), gameID); errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, "game not found")
				return
			}
			writeError(w, http.StatusConflict, "game is not in waiting state")
			return
		}

		broker.Publish(gameScope(gameID), Event{
			Type:   eventGameStarted,
			GameID: gameID,
			Status: gameActive,
		})

		detail, err := store.GameDetail(r.Context(), gameID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, detail)
	}
}

func handleAdminCancelGame(store Store, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID := chi.URLParam(r, "gameID")
		if uuid.Validate(gameID) != nil {
			writeError(w, http.StatusBadRequest, "invalid game id")
			return
		}

		cancelled, err := store.CancelGame(r.Context(), gameID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !cancelled {
			if _, err := store.GetGame(r.Context(), gameID); errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, "game not found")
				return
			}
			writeError(w, http.StatusConflict, "game already finished")
			return
		}

		broker.Publish(gameScope(gameID), Event{
			Type:   eventGameUpdated,
			GameID: gameID,
			Status: gameCancelled,
		})

		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func handleAdminDeleteGame(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID := chi.URLParam(r, "gameID")
		if uuid.Validate(gameID) != nil {
			writeError(w, http.StatusBadRequest, "invalid game id")
			return
		}

		game, err := store.GetGame(r.Context(), gameID)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "game not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		// A running hunt must be cancelled before it can be removed.
		if game.Status == gameActive {
			writeError(w, http.StatusConflict, "cannot delete an active game")
			return
		}

		if err := store.DeleteGame(r.Context(), gameID); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func handleAdminRevealClue(store Store, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
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

		revealed, err := store.RevealClue(r.Context(), clueID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !revealed {
			writeError(w, http.StatusConflict, "clue is not hidden")
			return
		}

		broker.Publish(gameScope(clue.GameID), Event{
			Type:      eventClueRevealed,
			GameID:    clue.GameID,
			ClueID:    clue.ID,
			ClueOrder: clue.Order,
		})

		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
