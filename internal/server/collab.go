package server

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// CollabStatus is the client-facing snapshot of a collaborative attempt.
type CollabStatus struct {
	Status          string   `json:"status"`
	ParticipantIDs  []string `json:"participantIds"`
	RequiredPlayers int      `json:"requiredPlayers"`
	PlayersNeeded   int      `json:"playersNeeded"`
	TimeRemaining   string   `json:"timeRemaining"`
	ExpiresAt       string   `json:"expiresAt"`
}

const (
	collabWaiting   = "waiting"
	collabCompleted = "completed"
	collabExpired   = "expired"
)

// findOrCreateAttempt returns the single live attempt for a clue, creating
// one when none exists. Stale active attempts are demoted first so a dead
// attempt is never joined; a request arriving after expiry starts fresh.
func findOrCreateAttempt(ctx context.Context, store Store, clue clueDoc, playerID string) (attemptDoc, error) {
	if err := store.ExpireStaleAttempts(ctx, clue.ID); err != nil {
		return attemptDoc{}, fmt.Errorf("expiring stale attempts: %w", err)
	}

	a, err := store.ActiveAttempt(ctx, clue.ID)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return attemptDoc{}, err
	}

	now := time.Now().UTC()
	a = attemptDoc{
		ID:              newID(),
		ClueID:          clue.ID,
		GameID:          clue.GameID,
		ParticipantIDs:  []string{},
		RequiredPlayers: clue.RequiredPlayers,
		StartedAt:       now.Format(timeLayout),
		ExpiresAt:       now.Add(time.Duration(clue.TimeLimitMinutes) * time.Minute).Format(timeLayout),
		Status:          attemptActive,
		InitiatedBy:     playerID,
	}
	err = store.CreateAttempt(ctx, a)
	if errors.Is(err, errAttemptExists) {
		// Lost the creation race; join the attempt the winner inserted.
		return store.ActiveAttempt(ctx, clue.ID)
	}
	if err != nil {
		return attemptDoc{}, fmt.Errorf("creating attempt: %w", err)
	}
	return a, nil
}

// joinAttempt adds the player to the participant set. Joining twice is a
// no-op; the set never holds duplicates. The append runs inside the store
// transaction so concurrent joiners never overwrite each other's entry.
func joinAttempt(ctx context.Context, store Store, a *attemptDoc, playerID string) error {
	updated, err := store.ModifyAttempt(ctx, a.ID, func(doc *attemptDoc) error {
		for _, id := range doc.ParticipantIDs {
			if id == playerID {
				return nil
			}
		}
		doc.ParticipantIDs = append(doc.ParticipantIDs, playerID)
		return nil
	})
	if err != nil {
		return err
	}
	*a = updated
	return nil
}

// completeAttemptIfReady checks the headcount and, once met, performs the
// group completion: mark the clue discovered with group attribution, append
// a discovered entry to every participant's ledger, recompute the game's
// completed-clue counter, archive the attempt to the durable log, then
// delete the live record. Every step is idempotent, so concurrent
// threshold-crossers on the same attempt all converge on one archived
// completion and each report success.
func completeAttemptIfReady(ctx context.Context, store Store, clue clueDoc, a attemptDoc) (bool, error) {
	if a.Status != attemptActive || len(a.ParticipantIDs) < a.RequiredPlayers {
		return false, nil
	}

	// Group attribution: no single discoverer. The compare-and-set result
	// is not a gate here; when the clue is already discovered the remaining
	// steps still run so every participant's ledger gets its entry.
	if _, err := store.MarkClueDiscovered(ctx, clue.ID, nil); err != nil {
		return false, fmt.Errorf("marking clue discovered: %w", err)
	}

	for _, pid := range a.ParticipantIDs {
		if err := store.RecordDiscovery(ctx, clue.GameID, pid, clue.ID); err != nil {
			return false, fmt.Errorf("recording discovery for %s: %w", pid, err)
		}
	}

	if _, err := store.RecountCompletedClues(ctx, clue.GameID); err != nil {
		return false, fmt.Errorf("recounting completed clues: %w", err)
	}

	// The live attempt is deleted, so the completion is archived first;
	// participation counts are sourced from the log, never from attempts.
	err := store.AppendAttemptLog(ctx, attemptLogDoc{
		ID:             a.ID,
		ClueID:         a.ClueID,
		GameID:         a.GameID,
		ParticipantIDs: a.ParticipantIDs,
		CompletedAt:    nowUTC(),
	})
	if err != nil {
		return false, fmt.Errorf("archiving attempt: %w", err)
	}

	if err := store.DeleteAttempt(ctx, a.ID); err != nil && !errors.Is(err, ErrNotFound) {
		return false, fmt.Errorf("deleting attempt: %w", err)
	}

	return true, nil
}

// snapshotAttempt derives the client-facing status from the attempt's
// participant count and remaining window.
func snapshotAttempt(a attemptDoc, completed bool) CollabStatus {
	st := CollabStatus{
		ParticipantIDs:  a.ParticipantIDs,
		RequiredPlayers: a.RequiredPlayers,
		ExpiresAt:       a.ExpiresAt,
	}

	remaining := time.Until(parseUTC(a.ExpiresAt))
	switch {
	case completed:
		st.Status = collabCompleted
		st.TimeRemaining = "0:00"
	case remaining <= 0:
		st.Status = collabExpired
		st.TimeRemaining = "0:00"
	default:
		st.Status = collabWaiting
		st.PlayersNeeded = a.RequiredPlayers - len(a.ParticipantIDs)
		secs := int(remaining.Round(time.Second).Seconds())
		st.TimeRemaining = fmt.Sprintf("%d:%02d", secs/60, secs%60)
	}
	return st
}
