package server

import (
	"context"
	"fmt"
)

// awardAchievements derives achievement records from a game's finalized
// state: one game_participation per player with at least one discovered
// clue, plus one game_win for the recorded winner. Inserts are idempotent
// per (player, game, type), so this can run from the win path, the lose
// path, and the collaborative completion path without double-awarding.
func awardAchievements(ctx context.Context, store Store, gameID string) error {
	g, err := store.GetGame(ctx, gameID)
	if err != nil {
		return fmt.Errorf("reading game: %w", err)
	}

	ledgers, err := store.ProgressByGame(ctx, gameID)
	if err != nil {
		return fmt.Errorf("reading ledgers: %w", err)
	}

	var duration int64
	if g.StartedAt != nil && g.FinishedAt != nil {
		duration = int64(parseUTC(*g.FinishedAt).Sub(parseUTC(*g.StartedAt)).Seconds())
	}

	now := nowUTC()
	for _, ledger := range ledgers {
		discovered := 0
		for _, e := range ledger.Entries {
			if e.Status == clueDiscovered {
				discovered++
			}
		}
		if discovered == 0 {
			continue
		}

		collabs, err := store.CountCollaborations(ctx, gameID, ledger.PlayerID)
		if err != nil {
			return fmt.Errorf("counting collaborations for %s: %w", ledger.PlayerID, err)
		}

		stats := achievementStats{
			CluesDiscovered:     discovered,
			CollaborativeClues:  collabs,
			TotalClues:          g.TotalClues,
			TotalPlayers:        len(g.PlayerIDs),
			GameDurationSeconds: duration,
		}

		_, err = store.InsertAchievement(ctx, achievementDoc{
			PlayerID:  ledger.PlayerID,
			GameID:    gameID,
			Type:      achievementParticipation,
			Stats:     stats,
			CreatedAt: now,
		})
		if err != nil {
			return fmt.Errorf("inserting participation for %s: %w", ledger.PlayerID, err)
		}

		if g.WinnerID != nil && *g.WinnerID == ledger.PlayerID {
			_, err = store.InsertAchievement(ctx, achievementDoc{
				PlayerID:  ledger.PlayerID,
				GameID:    gameID,
				Type:      achievementWin,
				Stats:     stats,
				CreatedAt: now,
			})
			if err != nil {
				return fmt.Errorf("inserting win for %s: %w", ledger.PlayerID, err)
			}
		}
	}

	return nil
}

// AchievementItem is one earned achievement with its stats snapshot.
type AchievementItem struct {
	GameID              string `json:"gameId"`
	Type                string `json:"type"`
	CluesDiscovered     int    `json:"cluesDiscovered"`
	CollaborativeClues  int    `json:"collaborativeClues"`
	TotalClues          int    `json:"totalClues"`
	TotalPlayers        int    `json:"totalPlayers"`
	GameDurationSeconds int64  `json:"gameDurationSeconds"`
	EarnedAt            string `json:"earnedAt"`
}

// AchievementSummary is the response for the player achievements endpoint.
type AchievementSummary struct {
	PlayerID     string            `json:"playerId"`
	TotalWins    int               `json:"totalWins"`
	TotalGames   int               `json:"totalGames"`
	Achievements []AchievementItem `json:"achievements"`
}

func achievementSummary(ctx context.Context, store Store, playerID string) (AchievementSummary, error) {
	docs, err := store.AchievementsByPlayer(ctx, playerID)
	if err != nil {
		return AchievementSummary{}, err
	}

	summary := AchievementSummary{PlayerID: playerID, Achievements: []AchievementItem{}}
	for _, d := range docs {
		summary.Achievements = append(summary.Achievements, AchievementItem{
			GameID:              d.GameID,
			Type:                d.Type,
			CluesDiscovered:     d.Stats.CluesDiscovered,
			CollaborativeClues:  d.Stats.CollaborativeClues,
			TotalClues:          d.Stats.TotalClues,
			TotalPlayers:        d.Stats.TotalPlayers,
			GameDurationSeconds: d.Stats.GameDurationSeconds,
			EarnedAt:            d.CreatedAt,
		})
		switch d.Type {
		case achievementWin:
			summary.TotalWins++
		case achievementParticipation:
			summary.TotalGames++
		}
	}
	return summary, nil
}
