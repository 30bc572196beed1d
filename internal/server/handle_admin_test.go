package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func seedAdmin(t *testing.T, store *DocStore) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	if _, err := store.CreateAdmin(context.Background(), "admin@test.local", string(hash)); err != nil {
		t.Fatalf("creating admin: %v", err)
	}
}

func adminLogin(t *testing.T, h http.Handler) *http.Cookie {
	t.Helper()
	body, _ := json.Marshal(AdminLoginRequest{Email: "admin@test.local", Password: "hunter2hunter2"})
	req := httptest.NewRequest(http.MethodPost, "/api/admin/login", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == adminCookieName {
			return c
		}
	}
	t.Fatal("login did not set session cookie")
	return nil
}

func adminReq(t *testing.T, h http.Handler, cookie *http.Cookie, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		b, _ := json.Marshal(payload)
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, body)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestAdminLoginBadCredentials(t *testing.T) {
	r, store := newTestRouter(t)
	seedAdmin(t, store)

	body, _ := json.Marshal(AdminLoginRequest{Email: "admin@test.local", Password: "wrong"})
	req := httptest.NewRequest(http.MethodPost, "/api/admin/login", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestAdminRoutesRequireSession(t *testing.T) {
	r, _ := newTestRouter(t)

	w := adminReq(t, r, nil, http.MethodGet, "/api/admin/games", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestAdminGameLifecycle(t *testing.T) {
	r, store := newTestRouter(t)
	seedAdmin(t, store)
	cookie := adminLogin(t, r)

	// me
	w := adminReq(t, r, cookie, http.MethodGet, "/api/admin/me", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", w.Code)
	}

	// Create a game.
	w = adminReq(t, r, cookie, http.MethodPost, "/api/admin/games", AdminGameRequest{
		Name: "Night Hunt",
		Clues: []AdminClueRequest{
			{Title: "Clock Tower", Hint: "tick", Lat: 8.75, Lng: -75.88, RadiusM: 40},
			{Title: "Fountain", Hint: "splash", Lat: 8.751, Lng: -75.881, RadiusM: 40,
				Collaborative: true, RequiredPlayers: 2},
		},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var detail AdminGameDetail
	json.NewDecoder(w.Body).Decode(&detail)
	if detail.Status != gameWaiting || len(detail.Clues) != 2 {
		t.Fatalf("unexpected created game: %+v", detail)
	}
	// Collaborative window defaulted.
	if detail.Clues[1].TimeLimitMinutes != defaultCollabWindowMins {
		t.Errorf("timeLimitMinutes = %d, want default %d", detail.Clues[1].TimeLimitMinutes, defaultCollabWindowMins)
	}

	// Reveal the first clue.
	w = adminReq(t, r, cookie, http.MethodPost, "/api/admin/clues/"+detail.Clues[0].ID+"/reveal", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("reveal: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	// Revealing twice conflicts.
	w = adminReq(t, r, cookie, http.MethodPost, "/api/admin/clues/"+detail.Clues[0].ID+"/reveal", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("double reveal: expected 409, got %d", w.Code)
	}

	// Start it.
	w = adminReq(t, r, cookie, http.MethodPost, "/api/admin/games/"+detail.ID+"/start", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("start: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	w = adminReq(t, r, cookie, http.MethodPost, "/api/admin/games/"+detail.ID+"/start", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("double start: expected 409, got %d", w.Code)
	}

	// Active games cannot be deleted.
	w = adminReq(t, r, cookie, http.MethodDelete, "/api/admin/games/"+detail.ID, nil)
	if w.Code != http.StatusConflict {
		t.Errorf("delete active: expected 409, got %d", w.Code)
	}

	// Cancel, then delete.
	w = adminReq(t, r, cookie, http.MethodPost, "/api/admin/games/"+detail.ID+"/cancel", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("cancel: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	w = adminReq(t, r, cookie, http.MethodDelete, "/api/admin/games/"+detail.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// Gone from the list.
	w = adminReq(t, r, cookie, http.MethodGet, "/api/admin/games", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", w.Code)
	}
	var games []AdminGameSummary
	json.NewDecoder(w.Body).Decode(&games)
	if len(games) != 0 {
		t.Errorf("expected empty list, got %d games", len(games))
	}
}

func TestAdminCreateGameValidation(t *testing.T) {
	r, store := newTestRouter(t)
	seedAdmin(t, store)
	cookie := adminLogin(t, r)

	tests := []struct {
		name string
		req  AdminGameRequest
	}{
		{"missing name", AdminGameRequest{Clues: []AdminClueRequest{{Title: "x", Lat: 1, Lng: 1, RadiusM: 10}}}},
		{"no clues", AdminGameRequest{Name: "Empty"}},
		{"bad coordinates", AdminGameRequest{Name: "Bad", Clues: []AdminClueRequest{{Title: "x", Lat: 91, Lng: 0, RadiusM: 10}}}},
		{"zero radius", AdminGameRequest{Name: "Bad", Clues: []AdminClueRequest{{Title: "x", Lat: 1, Lng: 1}}}},
		{"collab without headcount", AdminGameRequest{Name: "Bad", Clues: []AdminClueRequest{
			{Title: "x", Lat: 1, Lng: 1, RadiusM: 10, Collaborative: true, RequiredPlayers: 1}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := adminReq(t, r, cookie, http.MethodPost, "/api/admin/games", tt.req)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestAdminLogout(t *testing.T) {
	r, store := newTestRouter(t)
	seedAdmin(t, store)
	cookie := adminLogin(t, r)

	w := adminReq(t, r, cookie, http.MethodPost, "/api/admin/logout", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", w.Code)
	}

	// The session is dead server-side, not just in the cookie jar.
	w = adminReq(t, r, cookie, http.MethodGet, "/api/admin/games", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("after logout: expected 401, got %d", w.Code)
	}
}

func TestAdminManualSweep(t *testing.T) {
	r, store := newTestRouter(t)
	seedAdmin(t, store)
	cookie := adminLogin(t, r)
	detail := seedHunt(t, store, 10)

	// Plant a lapsed attempt for the sweep to find.
	err := store.PutAttempt(context.Background(), attemptDoc{
		ID:              newID(),
		ClueID:          detail.Clues[2].ID,
		GameID:          detail.ID,
		ParticipantIDs:  []string{"p1"},
		RequiredPlayers: 2,
		StartedAt:       nowUTC(),
		ExpiresAt:       "2020-01-01T00:00:00.000Z",
		Status:          attemptActive,
	})
	if err != nil {
		t.Fatalf("putting attempt: %v", err)
	}

	w := adminReq(t, r, cookie, http.MethodPost, "/api/admin/sweep", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("sweep: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var res SweepResult
	json.NewDecoder(w.Body).Decode(&res)
	if res.ExpiredCount != 1 {
		t.Errorf("expiredCount = %d, want 1", res.ExpiredCount)
	}
}
