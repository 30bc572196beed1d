package server

import (
	"encoding/json"
	"sync"
)

// Event is the payload published to subscribers. Delivery is
// fire-and-forget; the engine never depends on confirmation.
type Event struct {
	Type       string `json:"type"`
	GameID     string `json:"gameId,omitempty"`
	ClueID     string `json:"clueId,omitempty"`
	ClueOrder  int    `json:"clueOrder,omitempty"`
	PlayerID   string `json:"playerId,omitempty"`
	PlayerName string `json:"playerName,omitempty"`
	WinnerID   string `json:"winnerId,omitempty"`
	Status     string `json:"status,omitempty"`
}

// Event names carried on the broadcast channel.
const (
	eventGameCreated    = "game_created"
	eventGameStarted    = "game_started"
	eventPlayerJoined   = "player_joined"
	eventClueDiscovered = "clue_discovered"
	eventClueRevealed   = "clue_revealed"
	eventGameUpdated    = "game_updated"
)

// scopeAll addresses every connected client; game scopes address clients
// subscribed to one game.
const scopeAll = "all"

func gameScope(gameID string) string {
	return "game:" + gameID
}

// Broker is an in-process pub/sub for SSE events, keyed by scope.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel that receives JSON-encoded events for the
// given scope.
func (b *Broker) Subscribe(scope string) chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	if b.subs[scope] == nil {
		b.subs[scope] = make(map[chan []byte]struct{})
	}
	b.subs[scope][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel from the scope's subscribers.
func (b *Broker) Unsubscribe(scope string, ch chan []byte) {
	b.mu.Lock()
	delete(b.subs[scope], ch)
	if len(b.subs[scope]) == 0 {
		delete(b.subs, scope)
	}
	b.mu.Unlock()
}

// Publish sends an event to all subscribers of the given scope and to the
// global scope.
func (b *Broker) Publish(scope string, event Event) {
	data, _ := json.Marshal(event)
	scopes := []string{scope}
	if scope != scopeAll {
		scopes = append(scopes, scopeAll)
	}
	b.mu.RLock()
	for _, s := range scopes {
		for ch := range b.subs[s] {
			select {
			case ch <- data:
			default:
				// Drop if subscriber is slow.
			}
		}
	}
	b.mu.RUnlock()
}
