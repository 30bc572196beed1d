package server

import (
	"errors"
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// PlayerClueView is a clue as the player is allowed to see it. Coordinates
// are only exposed once the clue is visible; hidden clues appear as locked
// placeholders so the client can render the trail length.
type PlayerClueView struct {
	ID            string   `json:"id"`
	Order         int      `json:"order"`
	Title         string   `json:"title,omitempty"`
	Hint          string   `json:"hint,omitempty"`
	Lat           *float64 `json:"lat,omitempty"`
	Lng           *float64 `json:"lng,omitempty"`
	RadiusM       *float64 `json:"radiusMeters,omitempty"`
	Collaborative bool     `json:"collaborative"`
	Status        string   `json:"status"`
	Discovered    bool     `json:"discovered"`
}

type GameStateResponse struct {
	GameID          string           `json:"gameId"`
	GameName        string           `json:"gameName"`
	Status          string           `json:"status"`
	PlayerCount     int              `json:"playerCount"`
	MaxPlayers      int              `json:"maxPlayers"`
	WinnerID        string           `json:"winnerId,omitempty"`
	Clues           []PlayerClueView `json:"clues"`
	DiscoveredClues int              `json:"discoveredClues"`
	TotalClues      int              `json:"totalClues"`
	Percent         float64          `json:"percent"`
}

func handleGameState(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := playerFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}

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
		if !containsID(game.PlayerIDs, sess.PlayerID) {
			writeError(w, http.StatusForbidden, errPlayerNotInGame.Error())
			return
		}

		clues, err := store.CluesByGame(r.Context(), gameID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		ledger, err := store.GetProgress(r.Context(), gameID, sess.PlayerID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		discoveredByMe := make(map[string]bool, len(ledger.Entries))
		for _, e := range ledger.Entries {
			if e.Status == clueDiscovered {
				discoveredByMe[e.ClueID] = true
			}
		}

		views := make([]PlayerClueView, 0, len(clues))
		discovered := 0
		for _, c := range clues {
			v := PlayerClueView{
				ID:            c.ID,
				Order:         c.Order,
				Collaborative: c.Collaborative,
				Status:        c.Status,
				Discovered:    discoveredByMe[c.ID],
			}
			if v.Discovered {
				discovered++
			}
			if c.Status != clueHidden {
				lat, lng, radius := c.Lat, c.Lng, c.RadiusM
				v.Title = c.Title
				v.Hint = c.Hint
				v.Lat = &lat
				v.Lng = &lng
				v.RadiusM = &radius
			}
			views = append(views, v)
		}

		percent := 0.0
		if game.TotalClues > 0 {
			percent = math.Round(float64(discovered)/float64(game.TotalClues)*100*10) / 10
		}

		resp := GameStateResponse{
			GameID:          game.ID,
			GameName:        game.Name,
			Status:          game.Status,
			PlayerCount:     len(game.PlayerIDs),
			MaxPlayers:      game.MaxPlayers,
			Clues:           views,
			DiscoveredClues: discovered,
			TotalClues:      game.TotalClues,
			Percent:         percent,
		}
		if game.WinnerID != nil {
			resp.WinnerID = *game.WinnerID
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
