package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func newTestRouter(t *testing.T) (*chi.Mux, *DocStore) {
	t.Helper()
	store := setupStore(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := chi.NewRouter()
	addRoutes(r, logger, store, "")
	return r, store
}

func postDiscover(t *testing.T, h http.Handler, token, clueID string, lat, lng float64) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(DiscoverRequest{Lat: lat, Lng: lng})
	req := httptest.NewRequest(http.MethodPost, "/api/clues/"+clueID+"/discover", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeDiscover(t *testing.T, w *httptest.ResponseRecorder) DiscoverResponse {
	t.Helper()
	var resp DiscoverResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return resp
}

func TestDiscoverUnauthorized(t *testing.T) {
	r, store := newTestRouter(t)
	detail := seedHunt(t, store, 10)

	w := postDiscover(t, r, "", detail.Clues[0].ID, 8.75, -75.88)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", w.Code, w.Body.String())
	}
}

func TestDiscoverOutOfRange(t *testing.T) {
	r, store := newTestRouter(t)
	detail := seedHunt(t, store, 10)
	_, token := joinPlayer(t, store, detail.ID, "Maria")

	// About a kilometer north of the clue.
	w := postDiscover(t, r, token, detail.Clues[0].ID, 8.76, -75.88)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", w.Code, w.Body.String())
	}

	var body struct {
		Error     string `json:"error"`
		Proximity struct {
			DistanceM float64 `json:"distanceMeters"`
			InRange   bool    `json:"withinRange"`
		} `json:"proximity"`
	}
	json.NewDecoder(w.Body).Decode(&body)
	if body.Proximity.InRange {
		t.Error("proximity reported in range for a distant player")
	}
	if body.Proximity.DistanceM < 1000 || body.Proximity.DistanceM > 1250 {
		t.Errorf("distance = %.0f, want about 1.1km", body.Proximity.DistanceM)
	}
}

func TestDiscoverOutOfOrder(t *testing.T) {
	r, store := newTestRouter(t)
	detail := seedHunt(t, store, 10)
	_, token := joinPlayer(t, store, detail.ID, "Maria")

	// Second clue before the first.
	w := postDiscover(t, r, token, detail.Clues[1].ID, 8.7535, -75.8851)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestDiscoverHappyPath(t *testing.T) {
	r, store := newTestRouter(t)
	detail := seedHunt(t, store, 10)
	playerID, token := joinPlayer(t, store, detail.ID, "Maria")

	w := postDiscover(t, r, token, detail.Clues[0].ID, 8.75, -75.88)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := decodeDiscover(t, w)
	if resp.Clue.Status != clueDiscovered {
		t.Errorf("clue status = %q, want discovered", resp.Clue.Status)
	}
	if resp.Progress.DiscoveredClues != 1 || resp.Progress.TotalClues != 3 {
		t.Errorf("progress = %d/%d, want 1/3", resp.Progress.DiscoveredClues, resp.Progress.TotalClues)
	}
	if !resp.Progress.HasMoreClues || resp.Progress.GameComplete {
		t.Errorf("unexpected completion flags: %+v", resp.Progress)
	}
	if !resp.Proximity.InRange {
		t.Error("proximity not in range at exact coordinates")
	}
	if resp.Collaborative != nil {
		t.Error("normal clue produced a collaborative block")
	}

	clue, err := store.GetClue(context.Background(), detail.Clues[0].ID)
	if err != nil {
		t.Fatalf("reading clue: %v", err)
	}
	if clue.DiscoveredBy == nil || *clue.DiscoveredBy != playerID {
		t.Errorf("discoveredBy = %v, want %s", clue.DiscoveredBy, playerID)
	}

	// Rediscovery is out of sequence.
	w = postDiscover(t, r, token, detail.Clues[0].ID, 8.75, -75.88)
	if w.Code != http.StatusConflict {
		t.Fatalf("rediscovery: expected 409, got %d", w.Code)
	}
}

func TestDiscoverCollaborativeFlow(t *testing.T) {
	r, store := newTestRouter(t)
	detail := seedHunt(t, store, 10)
	aID, tokenA := joinPlayer(t, store, detail.ID, "Maria")
	bID, tokenB := joinPlayer(t, store, detail.ID, "Jorge")

	// Both players work through the solo clues first.
	for _, token := range []string{tokenA, tokenB} {
		if w := postDiscover(t, r, token, detail.Clues[0].ID, 8.75, -75.88); w.Code != http.StatusOK {
			t.Fatalf("solo clue 0: %d: %s", w.Code, w.Body.String())
		}
		if w := postDiscover(t, r, token, detail.Clues[1].ID, 8.7535, -75.8851); w.Code != http.StatusOK {
			t.Fatalf("solo clue 1: %d: %s", w.Code, w.Body.String())
		}
	}

	// First arrival at the finale waits.
	w := postDiscover(t, r, tokenA, detail.Clues[2].ID, 8.7568, -75.8872)
	if w.Code != http.StatusOK {
		t.Fatalf("first collab arrival: %d: %s", w.Code, w.Body.String())
	}
	resp := decodeDiscover(t, w)
	if resp.Collaborative == nil || resp.Collaborative.Status != collabWaiting {
		t.Fatalf("expected waiting collaborative status, got %+v", resp.Collaborative)
	}
	if resp.Collaborative.PlayersNeeded != 1 {
		t.Errorf("playersNeeded = %d, want 1", resp.Collaborative.PlayersNeeded)
	}

	// Second arrival completes the group and, with it, the hunt.
	w = postDiscover(t, r, tokenB, detail.Clues[2].ID, 8.7568, -75.8872)
	if w.Code != http.StatusOK {
		t.Fatalf("second collab arrival: %d: %s", w.Code, w.Body.String())
	}
	resp = decodeDiscover(t, w)
	if resp.Collaborative == nil || resp.Collaborative.Status != collabCompleted {
		t.Fatalf("expected completed collaborative status, got %+v", resp.Collaborative)
	}
	if !resp.Progress.GameComplete {
		t.Error("game not complete after collaborative finale")
	}
	if resp.Progress.IsWinner {
		t.Error("collaborative completion has no winner")
	}

	g, err := store.GetGame(context.Background(), detail.ID)
	if err != nil {
		t.Fatalf("reading game: %v", err)
	}
	if g.Status != gameCompleted {
		t.Errorf("game status = %q, want completed", g.Status)
	}
	if g.WinnerID != nil {
		t.Errorf("winnerId = %v, want nil", g.WinnerID)
	}

	// Participation achievements for both, with the collaboration counted.
	for _, pid := range []string{aID, bID} {
		req := httptest.NewRequest(http.MethodGet, "/api/players/"+pid+"/achievements", nil)
		req.Header.Set("Authorization", "Bearer "+tokenA)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("achievements for %s: %d", pid, rec.Code)
		}
		var summary AchievementSummary
		json.NewDecoder(rec.Body).Decode(&summary)
		if summary.TotalGames != 1 || summary.TotalWins != 0 {
			t.Errorf("summary for %s = %d games / %d wins, want 1/0", pid, summary.TotalGames, summary.TotalWins)
		}
		if len(summary.Achievements) != 1 || summary.Achievements[0].CollaborativeClues != 1 {
			t.Errorf("unexpected achievements for %s: %+v", pid, summary.Achievements)
		}
	}
}

// seedSprint creates a started one-clue game for win-race tests.
func seedSprint(t *testing.T, store *DocStore) AdminGameDetail {
	t.Helper()
	ctx := context.Background()

	detail, err := store.CreateGame(ctx, AdminGameRequest{
		Name:       "Sprint",
		MaxPlayers: 10,
		Clues: []AdminClueRequest{
			{Title: "Finish Line", Hint: "run", Lat: 8.75, Lng: -75.88, RadiusM: 50},
		},
	}, "test-admin")
	if err != nil {
		t.Fatalf("creating game: %v", err)
	}
	if started, err := store.StartGame(ctx, detail.ID); err != nil || !started {
		t.Fatalf("starting game: started=%v err=%v", started, err)
	}
	return detail
}

func TestDiscoverWinAndFinishedGame(t *testing.T) {
	r, store := newTestRouter(t)
	detail := seedSprint(t, store)
	aID, tokenA := joinPlayer(t, store, detail.ID, "Maria")
	_, tokenB := joinPlayer(t, store, detail.ID, "Jorge")

	w := postDiscover(t, r, tokenA, detail.Clues[0].ID, 8.75, -75.88)
	if w.Code != http.StatusOK {
		t.Fatalf("winning discovery: %d: %s", w.Code, w.Body.String())
	}
	resp := decodeDiscover(t, w)
	if !resp.Progress.IsWinner || resp.Progress.WinnerID != aID {
		t.Errorf("expected winner %s, got %+v", aID, resp.Progress)
	}

	// The game is finished; a later attempt is rejected.
	w = postDiscover(t, r, tokenB, detail.Clues[0].ID, 8.75, -75.88)
	if w.Code != http.StatusConflict {
		t.Fatalf("post-finish discovery: expected 409, got %d: %s", w.Code, w.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/api/players/"+aID+"/achievements", nil)
	req.Header.Set("Authorization", "Bearer "+tokenA)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	var summary AchievementSummary
	json.NewDecoder(rec.Body).Decode(&summary)
	if summary.TotalWins != 1 || summary.TotalGames != 1 {
		t.Errorf("winner summary = %d wins / %d games, want 1/1", summary.TotalWins, summary.TotalGames)
	}
}

func TestResolveWinLoserPath(t *testing.T) {
	store := setupStore(t)
	detail := seedSprint(t, store)
	aID, _ := joinPlayer(t, store, detail.ID, "Maria")
	bID, _ := joinPlayer(t, store, detail.ID, "Jorge")
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	// Both players have found everything; two completion attempts race.
	if _, err := store.MarkClueDiscovered(ctx, detail.Clues[0].ID, &aID); err != nil {
		t.Fatalf("marking clue: %v", err)
	}
	for _, pid := range []string{aID, bID} {
		if err := store.RecordDiscovery(ctx, detail.ID, pid, detail.Clues[0].ID); err != nil {
			t.Fatalf("recording discovery: %v", err)
		}
	}

	outA, err := resolveWin(ctx, store, logger, detail.ID, aID)
	if err != nil {
		t.Fatalf("resolving for A: %v", err)
	}
	outB, err := resolveWin(ctx, store, logger, detail.ID, bID)
	if err != nil {
		t.Fatalf("resolving for B: %v", err)
	}

	if !outA.IsWinner || outA.WinnerID != aID {
		t.Errorf("A should win: %+v", outA)
	}
	if outB.IsWinner {
		t.Errorf("B should lose the race: %+v", outB)
	}
	if outB.WinnerID != aID {
		t.Errorf("loser outcome names winner %q, want %s", outB.WinnerID, aID)
	}
}
