package server

import (
	"errors"
	"log/slog"
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cluechase/api/internal/geo"
)

type DiscoverRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ClueInfo is the discovered clue as returned to the player.
type ClueInfo struct {
	ID            string `json:"id"`
	Order         int    `json:"order"`
	Title         string `json:"title"`
	Hint          string `json:"hint"`
	Collaborative bool   `json:"collaborative"`
	Status        string `json:"status"`
}

// ProgressSummary reports the player's standing in the game after the call.
type ProgressSummary struct {
	DiscoveredClues int     `json:"discoveredClues"`
	TotalClues      int     `json:"totalClues"`
	Percent         float64 `json:"percent"`
	HasMoreClues    bool    `json:"hasMoreClues"`
	GameComplete    bool    `json:"gameComplete"`
	IsWinner        bool    `json:"isWinner"`
	WinnerID        string  `json:"winnerId,omitempty"`
	Message         string  `json:"message"`
}

type DiscoverResponse struct {
	Clue          ClueInfo        `json:"clue"`
	Progress      ProgressSummary `json:"progress"`
	Proximity     geo.Proximity   `json:"proximity"`
	Collaborative *CollabStatus   `json:"collaborative,omitempty"`
}

// handleDiscover orchestrates a single clue-discovery request: geofence,
// sequence order, the collaborative or normal branch, completion detection,
// and the win race for normal finishes.
func handleDiscover(store Store, broker *Broker, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := playerFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}

		clueID := chi.URLParam(r, "clueID")
		if uuid.Validate(clueID) != nil {
			writeError(w, http.StatusBadRequest, "invalid clue id")
			return
		}

		var req DiscoverRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
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

		// Proximity is validated per request: every participant of a
		// collaborative clue must individually be in range.
		prox, err := geo.CheckFence(
			geo.Point{Lat: clue.Lat, Lng: clue.Lng},
			clue.RadiusM,
			geo.Point{Lat: req.Lat, Lng: req.Lng},
		)
		var rangeErr *geo.RangeError
		if errors.As(err, &rangeErr) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":     err.Error(),
				"proximity": prox,
			})
			return
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		game, err := store.GetGame(r.Context(), clue.GameID)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "game not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if game.Status != gameActive {
			writeError(w, http.StatusConflict, errGameNotActive.Error())
			return
		}
		if !containsID(game.PlayerIDs, sess.PlayerID) {
			writeError(w, http.StatusForbidden, errPlayerNotInGame.Error())
			return
		}

		clues, err := store.CluesByGame(r.Context(), game.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		ledger, err := store.GetProgress(r.Context(), game.ID, sess.PlayerID)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "player progress not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		// The sequential contract applies to both normal and collaborative
		// clues.
		if err := validateOrder(clue, ledger, clues); err != nil {
			writeError(w, http.StatusConflict, err.Error())
			return
		}

		var collab *CollabStatus
		var outcome winOutcome

		if clue.Collaborative {
			attempt, err := findOrCreateAttempt(r.Context(), store, clue, sess.PlayerID)
			if err != nil {
				logger.Error("collaborative attempt", "clue_id", clue.ID, "error", err)
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			if err := joinAttempt(r.Context(), store, &attempt, sess.PlayerID); err != nil {
				logger.Error("joining attempt", "clue_id", clue.ID, "error", err)
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}

			completed, err := completeAttemptIfReady(r.Context(), store, clue, attempt)
			if err != nil {
				logger.Error("completing attempt", "clue_id", clue.ID, "error", err)
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}

			st := snapshotAttempt(attempt, completed)
			collab = &st

			if completed {
				broker.Publish(gameScope(game.ID), Event{
					Type:      eventClueDiscovered,
					GameID:    game.ID,
					ClueID:    clue.ID,
					ClueOrder: clue.Order,
				})

				// Collaborative completion has no winner race: group
				// consensus already serialized it.
				done, err := playerComplete(r, store, game, sess.PlayerID)
				if err != nil {
					writeError(w, http.StatusInternalServerError, "internal error")
					return
				}
				if done {
					if _, err := store.CompleteGame(r.Context(), game.ID, nil); err != nil {
						writeError(w, http.StatusInternalServerError, "internal error")
						return
					}
					if err := awardAchievements(r.Context(), store, game.ID); err != nil {
						logger.Error("awarding achievements", "game_id", game.ID, "error", err)
					}
					broker.Publish(gameScope(game.ID), Event{
						Type:   eventGameUpdated,
						GameID: game.ID,
						Status: gameCompleted,
					})
					outcome.Message = "All clues found. The hunt is complete!"
				}
			}
		} else {
			for _, e := range ledger.Entries {
				if e.ClueID == clue.ID && e.Status == clueDiscovered {
					writeError(w, http.StatusConflict, errAlreadyDiscovered.Error())
					return
				}
			}

			// Fresh read: another player may have finished the game since
			// the precondition check above.
			fresh, err := store.GetGame(r.Context(), game.ID)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			if fresh.Status != gameActive {
				writeError(w, http.StatusConflict, errGameAlreadyFinished.Error())
				return
			}

			if _, err := store.MarkClueDiscovered(r.Context(), clue.ID, &sess.PlayerID); err != nil {
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			if err := store.RecordDiscovery(r.Context(), game.ID, sess.PlayerID, clue.ID); err != nil {
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			if _, err := store.RecountCompletedClues(r.Context(), game.ID); err != nil {
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}

			broker.Publish(gameScope(game.ID), Event{
				Type:       eventClueDiscovered,
				GameID:     game.ID,
				ClueID:     clue.ID,
				ClueOrder:  clue.Order,
				PlayerID:   sess.PlayerID,
				PlayerName: sess.PlayerName,
			})

			done, err := playerComplete(r, store, game, sess.PlayerID)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			if done {
				outcome, err = resolveWin(r.Context(), store, logger, game.ID, sess.PlayerID)
				if err != nil {
					logger.Error("resolving winner", "game_id", game.ID, "error", err)
					writeError(w, http.StatusInternalServerError, "internal error")
					return
				}
				broker.Publish(gameScope(game.ID), Event{
					Type:     eventGameUpdated,
					GameID:   game.ID,
					Status:   gameCompleted,
					WinnerID: outcome.WinnerID,
				})
			}
		}

		resp, err := buildDiscoverResponse(r, store, clue, game.ID, sess.PlayerID, prox, collab, outcome)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// playerComplete reports whether the player's ledger now covers every clue
// in the game, computed against fresh reads.
func playerComplete(r *http.Request, store Store, game gameDoc, playerID string) (bool, error) {
	ledger, err := store.GetProgress(r.Context(), game.ID, playerID)
	if err != nil {
		return false, err
	}
	discovered := 0
	for _, e := range ledger.Entries {
		if e.Status == clueDiscovered {
			discovered++
		}
	}
	return game.TotalClues > 0 && discovered == game.TotalClues, nil
}

func buildDiscoverResponse(r *http.Request, store Store, clue clueDoc, gameID, playerID string, prox geo.Proximity, collab *CollabStatus, outcome winOutcome) (DiscoverResponse, error) {
	game, err := store.GetGame(r.Context(), gameID)
	if err != nil {
		return DiscoverResponse{}, err
	}
	ledger, err := store.GetProgress(r.Context(), gameID, playerID)
	if err != nil {
		return DiscoverResponse{}, err
	}
	fresh, err := store.GetClue(r.Context(), clue.ID)
	if err != nil {
		return DiscoverResponse{}, err
	}

	discovered := 0
	for _, e := range ledger.Entries {
		if e.Status == clueDiscovered {
			discovered++
		}
	}

	percent := 0.0
	if game.TotalClues > 0 {
		percent = math.Round(float64(discovered)/float64(game.TotalClues)*100*10) / 10
	}

	msg := outcome.Message
	if msg == "" {
		if collab != nil && collab.Status == collabWaiting {
			msg = "Waiting for more players at this clue."
		} else if discovered < game.TotalClues {
			msg = "Clue discovered, keep going!"
		}
	}

	winnerID := outcome.WinnerID
	if winnerID == "" && game.WinnerID != nil {
		winnerID = *game.WinnerID
	}

	return DiscoverResponse{
		Clue: ClueInfo{
			ID:            fresh.ID,
			Order:         fresh.Order,
			Title:         fresh.Title,
			Hint:          fresh.Hint,
			Collaborative: fresh.Collaborative,
			Status:        fresh.Status,
		},
		Progress: ProgressSummary{
			DiscoveredClues: discovered,
			TotalClues:      game.TotalClues,
			Percent:         percent,
			HasMoreClues:    discovered < game.TotalClues,
			GameComplete:    game.Status == gameCompleted,
			IsWinner:        outcome.IsWinner,
			WinnerID:        winnerID,
			Message:         msg,
		},
		Proximity:     prox,
		Collaborative: collab,
	}, nil
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
