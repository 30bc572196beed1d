package server

import (
	"context"
	"fmt"
	"log/slog"
)

type winOutcome struct {
	IsWinner bool
	WinnerID string
	Message  string
}

// resolveWin elects the single winner when a player completes the final
// clue of a normal game. The only synchronization is the store's atomic
// conditional update: exactly one caller's active→completed transition can
// succeed per game. The caller re-verifies "all clues discovered" against a
// freshly read game immediately before calling this; no other ordering is
// assumed between that check and the update here.
func resolveWin(ctx context.Context, store Store, logger *slog.Logger, gameID, playerID string) (winOutcome, error) {
	won, err := store.CompleteGame(ctx, gameID, &playerID)
	if err != nil {
		return winOutcome{}, fmt.Errorf("completing game: %w", err)
	}

	if won {
		if err := awardAchievements(ctx, store, gameID); err != nil {
			// The game is already completed; achievements can be re-derived.
			logger.Error("awarding achievements", "game_id", gameID, "error", err)
		}
		return winOutcome{
			IsWinner: true,
			WinnerID: playerID,
			Message:  "You found the final clue and won the hunt!",
		}, nil
	}

	// Lost the race. Re-read to learn who the recorded winner is.
	g, err := store.GetGame(ctx, gameID)
	if err != nil {
		return winOutcome{}, fmt.Errorf("reading finished game: %w", err)
	}
	winnerID := ""
	if g.WinnerID != nil {
		winnerID = *g.WinnerID
	}

	if err := awardAchievements(ctx, store, gameID); err != nil {
		logger.Error("awarding achievements", "game_id", gameID, "error", err)
	}

	return winOutcome{
		IsWinner: false,
		WinnerID: winnerID,
		Message:  fmt.Sprintf("You found every clue, but another player finished first (winner: %s).", winnerID),
	}, nil
}
