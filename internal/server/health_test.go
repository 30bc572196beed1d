package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHandleHealth(t *testing.T) {
	store := setupStore(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := handleHealth(logger, store)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	h(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var checks map[string]struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(w.Body).Decode(&checks); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if checks["sqlite"].Status != "ok" {
		t.Errorf("sqlite status = %q, want ok", checks["sqlite"].Status)
	}
}
