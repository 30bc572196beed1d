package server

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

// State conflicts surfaced to callers as rejected operations. These are
// routine concurrent-outcome losses, not failures of the system.
var (
	errSequenceViolation   = errors.New("clue is out of sequence")
	errAlreadyDiscovered   = errors.New("clue already discovered by this player")
	errGameNotActive       = errors.New("game is not active")
	errGameAlreadyFinished = errors.New("game already finished")
	errPlayerNotInGame     = errors.New("player is not a member of this game")
	errGameFull            = errors.New("game is full")
	errAttemptExists       = errors.New("clue already has an active attempt")
)

// Store is the document-store surface the engine runs on. Every mutation is
// a single-document write; the conditional updates (the methods returning a
// bool) are atomic compare-and-set operations guarded by the document's
// current status.
type Store interface {
	PlayerFromToken(ctx context.Context, token string) (playerSession, error)

	GetGame(ctx context.Context, id string) (gameDoc, error)
	GetClue(ctx context.Context, id string) (clueDoc, error)
	CluesByGame(ctx context.Context, gameID string) ([]clueDoc, error)
	GetProgress(ctx context.Context, gameID, playerID string) (progressDoc, error)
	ProgressByGame(ctx context.Context, gameID string) ([]progressDoc, error)

	JoinGame(ctx context.Context, gameID, playerName string) (playerID, sessionID string, err error)

	MarkClueDiscovered(ctx context.Context, clueID string, by *string) (bool, error)
	RecordDiscovery(ctx context.Context, gameID, playerID, clueID string) error
	RecountCompletedClues(ctx context.Context, gameID string) (int, error)
	CompleteGame(ctx context.Context, gameID string, winnerID *string) (bool, error)

	ExpireStaleAttempts(ctx context.Context, clueID string) error
	ActiveAttempt(ctx context.Context, clueID string) (attemptDoc, error)
	CreateAttempt(ctx context.Context, a attemptDoc) error
	ModifyAttempt(ctx context.Context, id string, fn func(*attemptDoc) error) (attemptDoc, error)
	DeleteAttempt(ctx context.Context, id string) error
	AppendAttemptLog(ctx context.Context, entry attemptLogDoc) error
	CountCollaborations(ctx context.Context, gameID, playerID string) (int, error)

	InsertAchievement(ctx context.Context, a achievementDoc) (bool, error)
	AchievementsByPlayer(ctx context.Context, playerID string) ([]achievementDoc, error)

	SweepExpireAttempts(ctx context.Context) (int64, error)
	SweepDeleteAttempts(ctx context.Context) (int64, error)

	ListGames(ctx context.Context) ([]AdminGameSummary, error)
	CreateGame(ctx context.Context, req AdminGameRequest, adminID string) (AdminGameDetail, error)
	GameDetail(ctx context.Context, id string) (AdminGameDetail, error)
	StartGame(ctx context.Context, id string) (bool, error)
	CancelGame(ctx context.Context, id string) (bool, error)
	DeleteGame(ctx context.Context, id string) error
	RevealClue(ctx context.Context, clueID string) (bool, error)
}
