package server

import (
	"context"
	"encoding/json"
)

// AdminGameSummary is returned in the list endpoint.
type AdminGameSummary struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Status         string  `json:"status"`
	TotalClues     int     `json:"totalClues"`
	CompletedClues int     `json:"completedClues"`
	PlayerCount    int     `json:"playerCount"`
	WinnerID       *string `json:"winnerId"`
	CreatedAt      string  `json:"createdAt"`
}

// AdminGameDetail is the full game with its ordered clue list.
type AdminGameDetail struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Status         string          `json:"status"`
	MaxPlayers     int             `json:"maxPlayers"`
	PlayerIDs      []string        `json:"playerIds"`
	WinnerID       *string         `json:"winnerId"`
	StartedAt      *string         `json:"startedAt"`
	FinishedAt     *string         `json:"finishedAt"`
	TotalClues     int             `json:"totalClues"`
	CompletedClues int             `json:"completedClues"`
	Clues          []AdminClueItem `json:"clues"`
	CreatedAt      string          `json:"createdAt"`
}

// AdminClueItem represents a clue within a game.
type AdminClueItem struct {
	ID               string  `json:"id"`
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
}

// AdminGameRequest is the request body for creating a game.
type AdminGameRequest struct {
	Name       string             `json:"name"`
	MaxPlayers int                `json:"maxPlayers"`
	Clues      []AdminClueRequest `json:"clues"`
}

// AdminClueRequest defines one clue in creation order; sequence orders are
// assigned from position, 0-based and contiguous.
type AdminClueRequest struct {
	Title            string  `json:"title"`
	Hint             string  `json:"hint"`
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
	RadiusM          float64 `json:"radiusMeters"`
	Collaborative    bool    `json:"collaborative"`
	RequiredPlayers  int     `json:"requiredPlayers"`
	TimeLimitMinutes int     `json:"timeLimitMinutes"`
}

func (s *DocStore) ListGames(ctx context.Context) ([]AdminGameSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT json(data) FROM games ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var games []AdminGameSummary
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		g, err := unmarshalGame(data)
		if err != nil {
			return nil, err
		}
		games = append(games, AdminGameSummary{
			ID:             g.ID,
			Name:           g.Name,
			Status:         g.Status,
			TotalClues:     g.TotalClues,
			CompletedClues: g.CompletedClues,
			PlayerCount:    len(g.PlayerIDs),
			WinnerID:       g.WinnerID,
			CreatedAt:      g.CreatedAt,
		})
	}
	return games, rows.Err()
}

func (s *DocStore) CreateGame(ctx context.Context, req AdminGameRequest, adminID string) (AdminGameDetail, error) {
	now := nowUTC()
	game := gameDoc{
		ID:             newID(),
		Name:           req.Name,
		Status:         gameWaiting,
		AdminID:        adminID,
		MaxPlayers:     req.MaxPlayers,
		ClueIDs:        []string{},
		PlayerIDs:      []string{},
		LastActivityAt: now,
		CreatedAt:      now,
		TotalClues:     len(req.Clues),
	}

	clues := make([]clueDoc, len(req.Clues))
	for i, cr := range req.Clues {
		clues[i] = clueDoc{
			ID:               newID(),
			GameID:           game.ID,
			Order:            i,
			Title:            cr.Title,
			Hint:             cr.Hint,
			Lat:              cr.Lat,
			Lng:              cr.Lng,
			RadiusM:          cr.RadiusM,
			Collaborative:    cr.Collaborative,
			RequiredPlayers:  cr.RequiredPlayers,
			TimeLimitMinutes: cr.TimeLimitMinutes,
			Status:           clueHidden,
		}
		game.ClueIDs = append(game.ClueIDs, clues[i].ID)
	}

	if err := s.putGame(ctx, game); err != nil {
		return AdminGameDetail{}, err
	}
	for _, c := range clues {
		if err := s.putClue(ctx, c); err != nil {
			return AdminGameDetail{}, err
		}
	}

	return s.GameDetail(ctx, game.ID)
}

func (s *DocStore) GameDetail(ctx context.Context, id string) (AdminGameDetail, error) {
	g, err := s.GetGame(ctx, id)
	if err != nil {
		return AdminGameDetail{}, err
	}
	clues, err := s.CluesByGame(ctx, id)
	if err != nil {
		return AdminGameDetail{}, err
	}

	items := make([]AdminClueItem, len(clues))
	for i, c := range clues {
		items[i] = AdminClueItem{
			ID:               c.ID,
			Order:            c.Order,
			Title:            c.Title,
			Hint:             c.Hint,
			Lat:              c.Lat,
			Lng:              c.Lng,
			RadiusM:          c.RadiusM,
			Collaborative:    c.Collaborative,
			RequiredPlayers:  c.RequiredPlayers,
			TimeLimitMinutes: c.TimeLimitMinutes,
			Status:           c.Status,
			DiscoveredBy:     c.DiscoveredBy,
		}
	}

	return AdminGameDetail{
		ID:             g.ID,
		Name:           g.Name,
		Status:         g.Status,
		MaxPlayers:     g.MaxPlayers,
		PlayerIDs:      g.PlayerIDs,
		WinnerID:       g.WinnerID,
		StartedAt:      g.StartedAt,
		FinishedAt:     g.FinishedAt,
		TotalClues:     g.TotalClues,
		CompletedClues: g.CompletedClues,
		Clues:          items,
		CreatedAt:      g.CreatedAt,
	}, nil
}

// StartGame transitions waiting → active. Conditional like the completion
// transition: starting twice is a no-op reported via the bool.
func (s *DocStore) StartGame(ctx context.Context, id string) (bool, error) {
	now := nowUTC()
	result, err := s.db.ExecContext(ctx,
		`UPDATE games
		 SET status = 'active',
		     data = jsonb_set(data, '$.status', 'active', '$.startedAt', ?, '$.lastActivityAt', ?)
		 WHERE id = ? AND status = 'waiting'`,
		now, now, id,
	)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

// CancelGame transitions waiting or active → cancelled. Completed games
// stay completed.
func (s *DocStore) CancelGame(ctx context.Context, id string) (bool, error) {
	now := nowUTC()
	result, err := s.db.ExecContext(ctx,
		`UPDATE games
		 SET status = 'cancelled',
		     data = jsonb_set(data, '$.status', 'cancelled', '$.finishedAt', ?, '$.lastActivityAt', ?)
		 WHERE id = ? AND status IN ('waiting', 'active')`,
		now, now, id,
	)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

func (s *DocStore) DeleteGame(ctx context.Context, id string) error {
	if err := s.del(ctx, "games", id); err != nil {
		return err
	}
	for _, q := range []string{
		`DELETE FROM clues WHERE game_id = ?`,
		`DELETE FROM progress WHERE game_id = ?`,
		`DELETE FROM attempts WHERE game_id = ?`,
	} {
		if _, err := s.db.ExecContext(ctx, q, id); err != nil {
			return err
		}
	}
	return nil
}

// RevealClue transitions hidden → revealed. Discovered clues are left alone.
func (s *DocStore) RevealClue(ctx context.Context, clueID string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE clues
		 SET status = 'revealed', data = jsonb_set(data, '$.status', 'revealed')
		 WHERE id = ? AND status = 'hidden'`,
		clueID,
	)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

func unmarshalGame(data string) (gameDoc, error) {
	var g gameDoc
	err := json.Unmarshal([]byte(data), &g)
	return g, err
}
