package server

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

const (
	demoAdminEmail    = "admin@cluechase.local"
	demoAdminPassword = "changeme"
)

// SeedDemo creates a demo admin and a small starter hunt if the database is
// empty. Idempotent: does nothing once an admin exists.
func SeedDemo(ctx context.Context, logger *slog.Logger, store *DocStore) error {
	_, _, err := store.AdminByEmail(ctx, demoAdminEmail)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(demoAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	adminID, err := store.CreateAdmin(ctx, demoAdminEmail, string(hash))
	if err != nil {
		return err
	}

	// Demo hunt in Monteria: two solo clues and a two-player finale.
	detail, err := store.CreateGame(ctx, AdminGameRequest{
		Name:       "Demo Hunt",
		MaxPlayers: 10,
		Clues: []AdminClueRequest{
			{
				Title:   "The Old Cathedral",
				Hint:    "Where the bells ring over the plaza.",
				Lat:     8.75,
				Lng:     -75.88,
				RadiusM: 50,
			},
			{
				Title:   "Riverside Market",
				Hint:    "Follow the smell of fried fish along the Sinu.",
				Lat:     8.7535,
				Lng:     -75.8851,
				RadiusM: 50,
			},
			{
				Title:            "The Twin Statues",
				Hint:             "It takes two to read the inscription.",
				Lat:              8.7568,
				Lng:              -75.8872,
				RadiusM:          50,
				Collaborative:    true,
				RequiredPlayers:  2,
				TimeLimitMinutes: 5,
			},
		},
	}, adminID)
	if err != nil {
		return err
	}

	if _, err := store.RevealClue(ctx, detail.Clues[0].ID); err != nil {
		return err
	}
	if _, err := store.StartGame(ctx, detail.ID); err != nil {
		return err
	}

	logger.Info("demo admin and game seeded", "email", demoAdminEmail, "game_id", detail.ID)
	return nil
}
