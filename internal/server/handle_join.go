package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type JoinRequest struct {
	PlayerName string `json:"playerName"`
}

type JoinResponse struct {
	PlayerID     string `json:"playerId"`
	SessionToken string `json:"sessionToken"`
	GameID       string `json:"gameId"`
	GameName     string `json:"gameName"`
	GameStatus   string `json:"gameStatus"`
}

func handleJoinGame(store Store, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID := chi.URLParam(r, "gameID")
		if uuid.Validate(gameID) != nil {
			writeError(w, http.StatusBadRequest, "invalid game id")
			return
		}

		var req JoinRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		name := strings.TrimSpace(req.PlayerName)
		if name == "" || len(name) > 64 {
			writeError(w, http.StatusBadRequest, "playerName must be 1-64 characters")
			return
		}

		playerID, token, err := store.JoinGame(r.Context(), gameID, name)
		switch {
		case errors.Is(err, ErrNotFound):
			writeError(w, http.StatusNotFound, "game not found")
			return
		case errors.Is(err, errGameFull):
			writeError(w, http.StatusConflict, errGameFull.Error())
			return
		case errors.Is(err, errGameNotActive):
			writeError(w, http.StatusConflict, "game is not open for joining")
			return
		case err != nil:
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		game, err := store.GetGame(r.Context(), gameID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		broker.Publish(gameScope(gameID), Event{
			Type:       eventPlayerJoined,
			GameID:     gameID,
			PlayerID:   playerID,
			PlayerName: name,
		})

		writeJSON(w, http.StatusCreated, JoinResponse{
			PlayerID:     playerID,
			SessionToken: token,
			GameID:       game.ID,
			GameName:     game.Name,
			GameStatus:   game.Status,
		})
	}
}
