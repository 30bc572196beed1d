package server

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, logger *slog.Logger, store *DocStore, spaDir string) {
	broker := NewBroker()

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("ClueChase API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, store))

	// Player routes. Sessions are Bearer tokens issued on join.
	r.Route("/api/games/{gameID}", func(r chi.Router) {
		r.Post("/join", handleJoinGame(store, broker))
		r.Get("/state", handleGameState(store))
		r.Get("/events", handleEvents(store, broker))
	})
	r.Post("/api/clues/{clueID}/discover", handleDiscover(store, broker, logger))
	r.Get("/api/clues/{clueID}/collaborative", handleCollabStatus(store))
	r.Get("/api/players/{playerID}/achievements", handleAchievements(store))

	// Admin auth.
	r.Post("/api/admin/login", handleAdminLogin(store))
	r.Post("/api/admin/logout", handleAdminLogout(store))

	// Admin surface, cookie-gated.
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(adminAuthMiddleware(store))

		r.Get("/me", handleAdminMe())
		r.Get("/events", handleAdminEvents(broker))
		r.Post("/sweep", handleAdminSweep(store, logger))

		r.Get("/games", handleAdminListGames(store))
		r.Post("/games", handleAdminCreateGame(store, broker))
		r.Get("/games/{gameID}", handleAdminGetGame(store))
		r.Post("/games/{gameID}/start", handleAdminStartGame(store, broker))
		r.Post("/games/{gameID}/cancel", handleAdminCancelGame(store, broker))
		r.Delete("/games/{gameID}", handleAdminDeleteGame(store))
		r.Post("/clues/{clueID}/reveal", handleAdminRevealClue(store, broker))
	})

	if spaDir != "" {
		if info, err := os.Stat(spaDir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", spaDir)
			r.NotFound(handleSPA(spaDir))
		}
	}
}
