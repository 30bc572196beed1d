package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Document types stored as JSONB in per-model tables. Filter columns
// (status, expires_at, ...) are extracted so conditional updates can guard
// on them; the JSON document is the source of truth for everything else.

type gameDoc struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Status         string   `json:"status"`
	AdminID        string   `json:"adminId"`
	MaxPlayers     int      `json:"maxPlayers"`
	ClueIDs        []string `json:"clueIds"`
	PlayerIDs      []string `json:"playerIds"`
	WinnerID       *string  `json:"winnerId"`
	StartedAt      *string  `json:"startedAt"`
	FinishedAt     *string  `json:"finishedAt"`
	LastActivityAt string   `json:"lastActivityAt"`
	CreatedAt      string   `json:"createdAt"`
	TotalClues     int      `json:"totalClues"`
	CompletedClues int      `json:"completedClues"`
}

// Game lifecycle. Status only ever advances; the completed transition is a
// compare-and-set so concurrent finishers elect exactly one winner.
const (
	gameWaiting   = "waiting"
	gameActive    = "active"
	gameCompleted = "completed"
	gameCancelled = "cancelled"
)

type clueDoc struct {
	ID               string  `json:"id"`
	GameID           string  `json:"gameId"`
	Order            int     `json:"order"`
	Title            string  `json:"title"`
	Hint             string  `json:"hint"`
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
	RadiusM          float64 `json:"radiusMeters"`
	Collaborative    bool    `json:"collaborative"`
	RequiredPlayers  int     `json:"requiredPlayers,omitempty"`
	TimeLimitMinutes int     `json:"timeLimitMinutes,omitempty"`
	Status           string  `json:"status"`
	DiscoveredBy     *string `json:"discoveredBy"`
	DiscoveredAt     *string `json:"discoveredAt"`
}

const (
	clueHidden     = "hidden"
	clueRevealed   = "revealed"
	clueDiscovered = "discovered"
)

type progressEntry struct {
	ClueID       string `json:"clueId"`
	Status       string `json:"status"`
	DiscoveredAt string `json:"discoveredAt"`
}

type progressDoc struct {
	GameID         string          `json:"gameId"`
	PlayerID       string          `json:"playerId"`
	PlayerName     string          `json:"playerName"`
	Entries        []progressEntry `json:"entries"`
	LastActivityAt string          `json:"lastActivityAt"`
}

type attemptDoc struct {
	ID              string   `json:"id"`
	ClueID          string   `json:"clueId"`
	GameID          string   `json:"gameId"`
	ParticipantIDs  []string `json:"participantIds"`
	RequiredPlayers int      `json:"requiredPlayers"`
	StartedAt       string   `json:"startedAt"`
	ExpiresAt       string   `json:"expiresAt"`
	Status          string   `json:"status"`
	InitiatedBy     string   `json:"initiatedBy"`
	CompletedAt     *string  `json:"completedAt"`
}

const (
	attemptActive    = "active"
	attemptCompleted = "completed"
	attemptExpired   = "expired"
)

// attemptLogDoc is the durable record of a completed collaborative attempt.
// The live attempt is deleted on completion; participation counts are
// sourced from this log, never from the attempts table.
type attemptLogDoc struct {
	ID             string   `json:"id"`
	ClueID         string   `json:"clueId"`
	GameID         string   `json:"gameId"`
	ParticipantIDs []string `json:"participantIds"`
	CompletedAt    string   `json:"completedAt"`
}

type achievementStats struct {
	CluesDiscovered     int   `json:"cluesDiscovered"`
	CollaborativeClues  int   `json:"collaborativeClues"`
	TotalClues          int   `json:"totalClues"`
	TotalPlayers        int   `json:"totalPlayers"`
	GameDurationSeconds int64 `json:"gameDurationSeconds"`
}

type achievementDoc struct {
	PlayerID  string           `json:"playerId"`
	GameID    string           `json:"gameId"`
	Type      string           `json:"type"`
	Stats     achievementStats `json:"stats"`
	CreatedAt string           `json:"createdAt"`
}

const (
	achievementWin           = "game_win"
	achievementParticipation = "game_participation"
)

type playerSessionDoc struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	GameID     string `json:"gameId"`
}

// DocStore implements Store using per-model tables with JSONB data columns.
type DocStore struct {
	db *sql.DB
}

func NewDocStore(ctx context.Context, db *sql.DB) (*DocStore, error) {
	for _, ddl := range []string{
		`CREATE TABLE IF NOT EXISTS games (
			id     TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			data   JSONB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS clues (
			id      TEXT PRIMARY KEY,
			game_id TEXT NOT NULL,
			seq     INTEGER NOT NULL,
			status  TEXT NOT NULL,
			data    JSONB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS progress (
			id        TEXT PRIMARY KEY,
			game_id   TEXT NOT NULL,
			player_id TEXT NOT NULL,
			data      JSONB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS attempts (
			id         TEXT PRIMARY KEY,
			clue_id    TEXT NOT NULL,
			game_id    TEXT NOT NULL,
			status     TEXT NOT NULL,
			expires_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			data       JSONB NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS attempts_one_active
			ON attempts(clue_id) WHERE status = 'active'`,
		`CREATE TABLE IF NOT EXISTS attempt_log (
			id      TEXT PRIMARY KEY,
			game_id TEXT NOT NULL,
			data    JSONB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS achievements (
			id        TEXT PRIMARY KEY,
			player_id TEXT NOT NULL,
			data      JSONB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS player_sessions (
			id   TEXT PRIMARY KEY,
			data JSONB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS admins (
			id    TEXT PRIMARY KEY,
			email TEXT UNIQUE NOT NULL,
			data  JSONB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS admin_sessions (
			id   TEXT PRIMARY KEY,
			data JSONB NOT NULL
		)`,
	} {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return nil, fmt.Errorf("creating table: %w", err)
		}
	}

	return &DocStore{db: db}, nil
}

func (s *DocStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Generic helpers shared by every table.

func (s *DocStore) get(ctx context.Context, table, id string, dest any) error {
	var data string
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT json(data) FROM %s WHERE id = ?`, table), id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), dest)
}

func (s *DocStore) del(ctx context.Context, table, id string) error {
	result, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, table), id,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func newID() string {
	return uuid.NewString()
}

const timeLayout = "2006-01-02T15:04:05.000Z"

func nowUTC() string {
	return time.Now().UTC().Format(timeLayout)
}

func parseUTC(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}

// Per-table put methods, each maintaining its own filter columns.

func (s *DocStore) putGame(ctx context.Context, g gameDoc) error {
	data, err := json.Marshal(g)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO games (id, status, data) VALUES (?, ?, jsonb(?))
		 ON CONFLICT(id) DO UPDATE SET status = excluded.status, data = excluded.data`,
		g.ID, g.Status, string(data),
	)
	return err
}

func (s *DocStore) putClue(ctx context.Context, c clueDoc) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO clues (id, game_id, seq, status, data) VALUES (?, ?, ?, ?, jsonb(?))
		 ON CONFLICT(id) DO UPDATE SET status = excluded.status, data = excluded.data`,
		c.ID, c.GameID, c.Order, c.Status, string(data),
	)
	return err
}

func (s *DocStore) putProgress(ctx context.Context, p progressDoc) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO progress (id, game_id, player_id, data) VALUES (?, ?, ?, jsonb(?))
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data`,
		p.GameID+":"+p.PlayerID, p.GameID, p.PlayerID, string(data),
	)
	return err
}

func (s *DocStore) putSession(ctx context.Context, id string, doc playerSessionDoc) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO player_sessions (id, data) VALUES (?, jsonb(?))`,
		id, string(data),
	)
	return err
}

// modifyGame loads a game, applies fn, and saves it in a transaction.
func (s *DocStore) modifyGame(ctx context.Context, gameID string, fn func(*gameDoc) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var data string
	err = tx.QueryRowContext(ctx,
		`SELECT json(data) FROM games WHERE id = ?`, gameID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	var g gameDoc
	if err := json.Unmarshal([]byte(data), &g); err != nil {
		return err
	}

	if err := fn(&g); err != nil {
		return err
	}

	jsonData, err := json.Marshal(g)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE games SET status = ?, data = jsonb(?) WHERE id = ?`,
		g.Status, string(jsonData), g.ID,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// modifyProgress loads a ledger, applies fn, and saves it in a transaction.
func (s *DocStore) modifyProgress(ctx context.Context, gameID, playerID string, fn func(*progressDoc) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var data string
	err = tx.QueryRowContext(ctx,
		`SELECT json(data) FROM progress WHERE id = ?`, gameID+":"+playerID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	var p progressDoc
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return err
	}

	if err := fn(&p); err != nil {
		return err
	}

	jsonData, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE progress SET data = jsonb(?) WHERE id = ?`,
		string(jsonData), gameID+":"+playerID,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Player auth

func (s *DocStore) PlayerFromToken(ctx context.Context, token string) (playerSession, error) {
	var ps playerSessionDoc
	err := s.get(ctx, "player_sessions", token, &ps)
	if errors.Is(err, ErrNotFound) {
		return playerSession{}, errNoSession
	}
	if err != nil {
		return playerSession{}, err
	}
	return playerSession{PlayerID: ps.PlayerID, PlayerName: ps.PlayerName, GameID: ps.GameID}, nil
}

// Reads

func (s *DocStore) GetGame(ctx context.Context, id string) (gameDoc, error) {
	var g gameDoc
	err := s.get(ctx, "games", id, &g)
	return g, err
}

func (s *DocStore) GetClue(ctx context.Context, id string) (clueDoc, error) {
	var c clueDoc
	err := s.get(ctx, "clues", id, &c)
	return c, err
}

func (s *DocStore) CluesByGame(ctx context.Context, gameID string) ([]clueDoc, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT json(data) FROM clues WHERE game_id = ? ORDER BY seq`, gameID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clues []clueDoc
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var c clueDoc
		if err := json.Unmarshal([]byte(data), &c); err != nil {
			return nil, err
		}
		clues = append(clues, c)
	}
	return clues, rows.Err()
}

func (s *DocStore) GetProgress(ctx context.Context, gameID, playerID string) (progressDoc, error) {
	var p progressDoc
	err := s.get(ctx, "progress", gameID+":"+playerID, &p)
	return p, err
}

func (s *DocStore) ProgressByGame(ctx context.Context, gameID string) ([]progressDoc, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT json(data) FROM progress WHERE game_id = ?`, gameID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ledgers []progressDoc
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var p progressDoc
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return nil, err
		}
		ledgers = append(ledgers, p)
	}
	return ledgers, rows.Err()
}

// Join

func (s *DocStore) JoinGame(ctx context.Context, gameID, playerName string) (string, string, error) {
	playerID := newID()
	sessionID := newID()
	now := nowUTC()

	err := s.modifyGame(ctx, gameID, func(g *gameDoc) error {
		if g.Status != gameWaiting && g.Status != gameActive {
			return errGameNotActive
		}
		if g.MaxPlayers > 0 && len(g.PlayerIDs) >= g.MaxPlayers {
			return errGameFull
		}
		g.PlayerIDs = append(g.PlayerIDs, playerID)
		g.LastActivityAt = now
		return nil
	})
	if err != nil {
		return "", "", err
	}

	// Ledger created on join, appended to on each discovery.
	err = s.putProgress(ctx, progressDoc{
		GameID:         gameID,
		PlayerID:       playerID,
		PlayerName:     playerName,
		Entries:        []progressEntry{},
		LastActivityAt: now,
	})
	if err != nil {
		return "", "", err
	}

	err = s.putSession(ctx, sessionID, playerSessionDoc{
		PlayerID:   playerID,
		PlayerName: playerName,
		GameID:     gameID,
	})
	if err != nil {
		return "", "", err
	}

	return playerID, sessionID, nil
}

// Discovery writes

// MarkClueDiscovered flips a clue to discovered, attributed to by (nil for
// group attribution). The guard on the status column makes the first writer
// win; a false return means another request got there first, which is fine
// since the clue is discovered either way.
func (s *DocStore) MarkClueDiscovered(ctx context.Context, clueID string, by *string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE clues
		 SET status = 'discovered',
		     data = jsonb_set(data, '$.status', 'discovered', '$.discoveredBy', ?, '$.discoveredAt', ?)
		 WHERE id = ? AND status != 'discovered'`,
		by, nowUTC(), clueID,
	)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

func (s *DocStore) RecordDiscovery(ctx context.Context, gameID, playerID, clueID string) error {
	now := nowUTC()
	return s.modifyProgress(ctx, gameID, playerID, func(p *progressDoc) error {
		for i := range p.Entries {
			if p.Entries[i].ClueID == clueID {
				// At most one entry per clue; re-recording is a no-op.
				p.Entries[i].Status = clueDiscovered
				p.LastActivityAt = now
				return nil
			}
		}
		p.Entries = append(p.Entries, progressEntry{
			ClueID:       clueID,
			Status:       clueDiscovered,
			DiscoveredAt: now,
		})
		p.LastActivityAt = now
		return nil
	})
}

// RecountCompletedClues recomputes the game's completed-clue counter from
// the clues table and persists it. The counter is recomputed from the clues
// table every time; the cached value is never trusted across requests.
func (s *DocStore) RecountCompletedClues(ctx context.Context, gameID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM clues WHERE game_id = ? AND status = 'discovered'`, gameID,
	).Scan(&count)
	if err != nil {
		return 0, err
	}

	now := nowUTC()
	err = s.modifyGame(ctx, gameID, func(g *gameDoc) error {
		g.CompletedClues = count
		g.LastActivityAt = now
		return nil
	})
	return count, err
}

// CompleteGame transitions active → completed, setting winner and finish
// time, guarded on the game still being active. The store executes this as
// one atomic conditional update: exactly one caller per game sees true.
func (s *DocStore) CompleteGame(ctx context.Context, gameID string, winnerID *string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE games
		 SET status = 'completed',
		     data = jsonb_set(data, '$.status', 'completed', '$.winnerId', ?, '$.finishedAt', ?, '$.lastActivityAt', ?)
		 WHERE id = ? AND status = 'active'`,
		winnerID, nowUTC(), nowUTC(), gameID,
	)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

// Collaborative attempts

// ExpireStaleAttempts demotes lapsed active attempts for a clue before a
// lookup, so a dead attempt is never joined.
func (s *DocStore) ExpireStaleAttempts(ctx context.Context, clueID string) error {
	now := nowUTC()
	_, err := s.db.ExecContext(ctx,
		`UPDATE attempts
		 SET status = 'expired', data = jsonb_set(data, '$.status', 'expired'), updated_at = ?
		 WHERE clue_id = ? AND status = 'active' AND expires_at <= ?`,
		now, clueID, now,
	)
	return err
}

func (s *DocStore) ActiveAttempt(ctx context.Context, clueID string) (attemptDoc, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT json(data) FROM attempts
		 WHERE clue_id = ? AND status = 'active' AND expires_at > ?
		 LIMIT 1`,
		clueID, nowUTC(),
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return attemptDoc{}, ErrNotFound
	}
	if err != nil {
		return attemptDoc{}, err
	}
	var a attemptDoc
	if err := json.Unmarshal([]byte(data), &a); err != nil {
		return attemptDoc{}, err
	}
	return a, nil
}

func (s *DocStore) PutAttempt(ctx context.Context, a attemptDoc) error {
	data, err := json.Marshal(a)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO attempts (id, clue_id, game_id, status, expires_at, updated_at, data)
		 VALUES (?, ?, ?, ?, ?, ?, jsonb(?))
		 ON CONFLICT(id) DO UPDATE SET status = excluded.status, expires_at = excluded.expires_at,
		 	updated_at = excluded.updated_at, data = excluded.data`,
		a.ID, a.ClueID, a.GameID, a.Status, a.ExpiresAt, nowUTC(), string(data),
	)
	return err
}

// CreateAttempt inserts a fresh attempt. The attempts_one_active index
// serializes creation per clue: when a concurrent initiator got there first
// the insert fails and the caller joins the existing attempt instead.
func (s *DocStore) CreateAttempt(ctx context.Context, a attemptDoc) error {
	data, err := json.Marshal(a)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO attempts (id, clue_id, game_id, status, expires_at, updated_at, data)
		 VALUES (?, ?, ?, ?, ?, ?, jsonb(?))`,
		a.ID, a.ClueID, a.GameID, a.Status, a.ExpiresAt, nowUTC(), string(data),
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE") {
		return errAttemptExists
	}
	return err
}

// ModifyAttempt loads an attempt, applies fn, and saves it in a transaction,
// returning the saved document.
func (s *DocStore) ModifyAttempt(ctx context.Context, id string, fn func(*attemptDoc) error) (attemptDoc, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return attemptDoc{}, err
	}
	defer tx.Rollback()

	var data string
	err = tx.QueryRowContext(ctx,
		`SELECT json(data) FROM attempts WHERE id = ?`, id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return attemptDoc{}, ErrNotFound
	}
	if err != nil {
		return attemptDoc{}, err
	}

	var a attemptDoc
	if err := json.Unmarshal([]byte(data), &a); err != nil {
		return attemptDoc{}, err
	}

	if err := fn(&a); err != nil {
		return attemptDoc{}, err
	}

	jsonData, err := json.Marshal(a)
	if err != nil {
		return attemptDoc{}, err
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE attempts SET status = ?, expires_at = ?, updated_at = ?, data = jsonb(?) WHERE id = ?`,
		a.Status, a.ExpiresAt, nowUTC(), string(jsonData), a.ID,
	)
	if err != nil {
		return attemptDoc{}, err
	}

	return a, tx.Commit()
}

func (s *DocStore) DeleteAttempt(ctx context.Context, id string) error {
	return s.del(ctx, "attempts", id)
}

func (s *DocStore) AppendAttemptLog(ctx context.Context, entry attemptLogDoc) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO attempt_log (id, game_id, data) VALUES (?, ?, jsonb(?))
		 ON CONFLICT(id) DO NOTHING`,
		entry.ID, entry.GameID, string(data),
	)
	return err
}

// CountCollaborations counts completed collaborative attempts in a game
// that listed the player, sourced from the append-only log.
func (s *DocStore) CountCollaborations(ctx context.Context, gameID, playerID string) (int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT json(data) FROM attempt_log WHERE game_id = ?`, gameID,
	)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return 0, err
		}
		var entry attemptLogDoc
		if err := json.Unmarshal([]byte(data), &entry); err != nil {
			return 0, err
		}
		for _, id := range entry.ParticipantIDs {
			if id == playerID {
				count++
				break
			}
		}
	}
	return count, rows.Err()
}

// Achievements

// InsertAchievement is idempotent per (player, game, type): a duplicate is
// detected and skipped, reported via the bool.
func (s *DocStore) InsertAchievement(ctx context.Context, a achievementDoc) (bool, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return false, err
	}
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO achievements (id, player_id, data) VALUES (?, ?, jsonb(?))
		 ON CONFLICT(id) DO NOTHING`,
		a.PlayerID+":"+a.GameID+":"+a.Type, a.PlayerID, string(data),
	)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

func (s *DocStore) AchievementsByPlayer(ctx context.Context, playerID string) ([]achievementDoc, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT json(data) FROM achievements WHERE player_id = ? ORDER BY id`, playerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var achievements []achievementDoc
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var a achievementDoc
		if err := json.Unmarshal([]byte(data), &a); err != nil {
			return nil, err
		}
		achievements = append(achievements, a)
	}
	return achievements, rows.Err()
}

// Sweeper bulk writes

func (s *DocStore) SweepExpireAttempts(ctx context.Context) (int64, error) {
	now := nowUTC()
	result, err := s.db.ExecContext(ctx,
		`UPDATE attempts
		 SET status = 'expired', data = jsonb_set(data, '$.status', 'expired'), updated_at = ?
		 WHERE status = 'active' AND expires_at <= ?`,
		now, now,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (s *DocStore) SweepDeleteAttempts(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-24 * time.Hour).Format(timeLayout)
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM attempts
		 WHERE status IN ('expired', 'completed') AND updated_at <= ?`,
		cutoff,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Ensure DocStore implements Store at compile time.
var _ Store = (*DocStore)(nil)
