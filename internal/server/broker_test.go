package server

import (
	"encoding/json"
	"testing"
)

func TestBrokerScopedDelivery(t *testing.T) {
	b := NewBroker()

	gameCh := b.Subscribe(gameScope("g1"))
	otherCh := b.Subscribe(gameScope("g2"))
	allCh := b.Subscribe(scopeAll)

	b.Publish(gameScope("g1"), Event{Type: eventClueDiscovered, GameID: "g1"})

	select {
	case data := <-gameCh:
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("decoding event: %v", err)
		}
		if ev.Type != eventClueDiscovered || ev.GameID != "g1" {
			t.Errorf("unexpected event: %+v", ev)
		}
	default:
		t.Fatal("game subscriber got nothing")
	}

	select {
	case <-allCh:
	default:
		t.Fatal("global subscriber got nothing")
	}

	select {
	case <-otherCh:
		t.Fatal("event leaked into another game's scope")
	default:
	}
}

func TestBrokerUnsubscribe(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe(gameScope("g1"))
	b.Unsubscribe(gameScope("g1"), ch)

	b.Publish(gameScope("g1"), Event{Type: eventGameUpdated, GameID: "g1"})

	select {
	case <-ch:
		t.Fatal("unsubscribed channel still receives")
	default:
	}
}

func TestBrokerDropsSlowSubscriber(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe(scopeAll)

	// Overflow the buffer; publishes past capacity must not block.
	for i := 0; i < 100; i++ {
		b.Publish(scopeAll, Event{Type: eventGameUpdated})
	}

	if len(ch) != cap(ch) {
		t.Errorf("buffered = %d, want full buffer %d", len(ch), cap(ch))
	}
}
