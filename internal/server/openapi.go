package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "ClueChase API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for the ClueChase scavenger hunt.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("application/json"))
	_ = r.AddOperation(getHealthz)

	// POST /api/games/{gameID}/join
	postJoin, _ := r.NewOperationContext(http.MethodPost, "/api/games/{gameID}/join")
	postJoin.SetSummary("Join a game")
	postJoin.SetDescription("Player joins a game by id. Returns a session token.")
	postJoin.AddReqStructure(JoinRequest{})
	postJoin.AddRespStructure(JoinResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	postJoin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postJoin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postJoin)

	// GET /api/games/{gameID}/state
	getState, _ := r.NewOperationContext(http.MethodGet, "/api/games/{gameID}/state")
	getState.SetSummary("Get game state")
	getState.SetDescription("Returns the player's view of the game: visible clues and progress. Requires Bearer token.")
	getState.AddRespStructure(GameStateResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getState.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getState)

	// GET /api/games/{gameID}/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/games/{gameID}/events")
	getEvents.SetSummary("SSE event stream")
	getEvents.SetDescription("Server-Sent Events stream for real-time game updates. Pass token as query parameter.")
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	// POST /api/clues/{clueID}/discover
	postDiscover, _ := r.NewOperationContext(http.MethodPost, "/api/clues/{clueID}/discover")
	postDiscover.SetSummary("Discover a clue")
	postDiscover.SetDescription("Attempt to discover a clue at the player's current location. Requires Bearer token.")
	postDiscover.AddReqStructure(DiscoverRequest{})
	postDiscover.AddRespStructure(DiscoverResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postDiscover.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	postDiscover.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	postDiscover.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnprocessableEntity))
	_ = r.AddOperation(postDiscover)

	// GET /api/clues/{clueID}/collaborative
	getCollab, _ := r.NewOperationContext(http.MethodGet, "/api/clues/{clueID}/collaborative")
	getCollab.SetSummary("Collaborative attempt status")
	getCollab.SetDescription("Returns the live collaborative attempt for a clue. Requires Bearer token.")
	getCollab.AddRespStructure(CollabStatus{}, openapi.WithHTTPStatus(http.StatusOK))
	getCollab.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getCollab)

	// GET /api/players/{playerID}/achievements
	getAchievements, _ := r.NewOperationContext(http.MethodGet, "/api/players/{playerID}/achievements")
	getAchievements.SetSummary("Player achievements")
	getAchievements.SetDescription("Returns the player's achievement history and aggregate counters. Requires Bearer token.")
	getAchievements.AddRespStructure(AchievementSummary{}, openapi.WithHTTPStatus(http.StatusOK))
	getAchievements.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getAchievements)

	// POST /api/admin/login
	postLogin, _ := r.NewOperationContext(http.MethodPost, "/api/admin/login")
	postLogin.SetSummary("Admin login")
	postLogin.SetDescription("Authenticate with email and password. Sets admin_session cookie.")
	postLogin.AddReqStructure(AdminLoginRequest{})
	postLogin.AddRespStructure(AdminMeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postLogin)

	// POST /api/admin/logout
	postLogout, _ := r.NewOperationContext(http.MethodPost, "/api/admin/logout")
	postLogout.SetSummary("Admin logout")
	postLogout.SetDescription("Clears admin session and cookie.")
	postLogout.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(postLogout)

	// GET /api/admin/me
	getMe, _ := r.NewOperationContext(http.MethodGet, "/api/admin/me")
	getMe.SetSummary("Current admin")
	getMe.SetDescription("Returns the currently authenticated admin. Requires admin_session cookie.")
	getMe.AddRespStructure(AdminMeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getMe.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getMe)

	// GET /api/admin/games
	listGames, _ := r.NewOperationContext(http.MethodGet, "/api/admin/games")
	listGames.SetSummary("List games")
	listGames.SetDescription("Returns all games with player and clue counts. Requires admin_session cookie.")
	listGames.AddRespStructure([]AdminGameSummary{}, openapi.WithHTTPStatus(http.StatusOK))
	listGames.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(listGames)

	// POST /api/admin/games
	createGame, _ := r.NewOperationContext(http.MethodPost, "/api/admin/games")
	createGame.SetSummary("Create game")
	createGame.SetDescription("Creates a new game with its ordered clue list. Requires admin_session cookie.")
	createGame.AddReqStructure(AdminGameRequest{})
	createGame.AddRespStructure(AdminGameDetail{}, openapi.WithHTTPStatus(http.StatusCreated))
	createGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(createGame)

	// GET /api/admin/games/{gameID}
	getGame, _ := r.NewOperationContext(http.MethodGet, "/api/admin/games/{gameID}")
	getGame.SetSummary("Get game")
	getGame.SetDescription("Returns the full game with clues. Requires admin_session cookie.")
	getGame.AddRespStructure(AdminGameDetail{}, openapi.WithHTTPStatus(http.StatusOK))
	getGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getGame)

	// POST /api/admin/games/{gameID}/start
	startGame, _ := r.NewOperationContext(http.MethodPost, "/api/admin/games/{gameID}/start")
	startGame.SetSummary("Start game")
	startGame.SetDescription("Transitions a waiting game to active. Requires admin_session cookie.")
	startGame.AddRespStructure(AdminGameDetail{}, openapi.WithHTTPStatus(http.StatusOK))
	startGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(startGame)

	// POST /api/admin/games/{gameID}/cancel
	cancelGame, _ := r.NewOperationContext(http.MethodPost, "/api/admin/games/{gameID}/cancel")
	cancelGame.SetSummary("Cancel game")
	cancelGame.SetDescription("Cancels a waiting or active game. Requires admin_session cookie.")
	cancelGame.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	cancelGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(cancelGame)

	// DELETE /api/admin/games/{gameID}
	deleteGame, _ := r.NewOperationContext(http.MethodDelete, "/api/admin/games/{gameID}")
	deleteGame.SetSummary("Delete game")
	deleteGame.SetDescription("Deletes a non-active game and its clues, progress, and attempts. Requires admin_session cookie.")
	deleteGame.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	deleteGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(deleteGame)

	// POST /api/admin/clues/{clueID}/reveal
	revealClue, _ := r.NewOperationContext(http.MethodPost, "/api/admin/clues/{clueID}/reveal")
	revealClue.SetSummary("Reveal clue")
	revealClue.SetDescription("Makes a hidden clue visible to players. Requires admin_session cookie.")
	revealClue.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	revealClue.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(revealClue)

	// POST /api/admin/sweep
	postSweep, _ := r.NewOperationContext(http.MethodPost, "/api/admin/sweep")
	postSweep.SetSummary("Run expiry sweep")
	postSweep.SetDescription("Expires stale collaborative attempts and prunes old terminal ones. Requires admin_session cookie.")
	postSweep.AddRespStructure(SweepResult{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(postSweep)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(spec)
	}
}
