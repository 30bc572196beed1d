package server

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"
)

func TestRunExpirySweep(t *testing.T) {
	store := setupStore(t)
	detail := seedHunt(t, store, 10)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	// One lapsed active attempt, one terminal attempt past retention.
	lapsed := attemptDoc{
		ID:              newID(),
		ClueID:          detail.Clues[2].ID,
		GameID:          detail.ID,
		ParticipantIDs:  []string{"p1"},
		RequiredPlayers: 2,
		StartedAt:       nowUTC(),
		ExpiresAt:       time.Now().UTC().Add(-time.Minute).Format(timeLayout),
		Status:          attemptActive,
	}
	if err := store.PutAttempt(ctx, lapsed); err != nil {
		t.Fatalf("putting lapsed attempt: %v", err)
	}

	stale := lapsed
	stale.ID = newID()
	stale.Status = attemptExpired
	if err := store.PutAttempt(ctx, stale); err != nil {
		t.Fatalf("putting stale attempt: %v", err)
	}
	old := time.Now().UTC().Add(-25 * time.Hour).Format(timeLayout)
	if _, err := store.db.ExecContext(ctx, `UPDATE attempts SET updated_at = ? WHERE id = ?`, old, stale.ID); err != nil {
		t.Fatalf("backdating attempt: %v", err)
	}

	res := RunExpirySweep(ctx, store, logger)
	if res.ExpiredCount != 1 {
		t.Errorf("expiredCount = %d, want 1", res.ExpiredCount)
	}
	if res.DeletedCount != 1 {
		t.Errorf("deletedCount = %d, want 1", res.DeletedCount)
	}

	// A second pass finds nothing new; the freshly expired attempt is
	// still inside its retention window.
	res = RunExpirySweep(ctx, store, logger)
	if res.ExpiredCount != 0 || res.DeletedCount != 0 {
		t.Errorf("second pass = %+v, want zeroes", res)
	}
}
