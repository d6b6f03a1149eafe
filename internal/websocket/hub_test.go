package websocket

import (
	"encoding/json"
	"log/slog"
	"testing"
)

// mockClient creates a Client with a send channel but no real connection.
func mockClient(hub *Hub) *Client {
	return &Client{
		hub:  hub,
		conn: nil,
		send: make(chan []byte, sendBufferSize),
	}
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub(slog.Default())

	c1 := mockClient(hub)
	c2 := mockClient(hub)

	hub.Register(c1)
	hub.Register(c2)

	if got := hub.ClientCount(); got != 2 {
		t.Fatalf("expected 2 clients, got %d", got)
	}

	hub.Unregister(c1)

	if got := hub.ClientCount(); got != 1 {
		t.Fatalf("expected 1 client after unregister, got %d", got)
	}

	hub.Unregister(c2)

	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestDoubleUnregister(t *testing.T) {
	hub := NewHub(slog.Default())
	c := mockClient(hub)
	hub.Register(c)
	hub.Unregister(c)
	// Should not panic
	hub.Unregister(c)

	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestBroadcast(t *testing.T) {
	hub := NewHub(slog.Default())

	c1 := mockClient(hub)
	c2 := mockClient(hub)
	hub.Register(c1)
	hub.Register(c2)

	msg := NewMessage("edition", "published", "ed-42", map[string]any{"city_id": "city-1"})
	hub.Broadcast(msg)

	// Check both clients received the message
	for _, c := range []*Client{c1, c2} {
		select {
		case data := <-c.send:
			var got Message
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got.Type != "edition_published" {
				t.Errorf("expected type edition_published, got %s", got.Type)
			}
			if got.ID != "ed-42" {
				t.Errorf("expected id ed-42, got %s", got.ID)
			}
			if got.Extra["city_id"] != "city-1" {
				t.Errorf("extra = %v", got.Extra)
			}
		default:
			t.Fatal("client did not receive broadcast")
		}
	}
}

func TestBroadcastFullBufferDoesNotBlock(t *testing.T) {
	hub := NewHub(slog.Default())
	c := mockClient(hub)
	hub.Register(c)

	// Fill the buffer past capacity; extra messages are dropped, not blocked on.
	for i := 0; i < sendBufferSize+5; i++ {
		hub.Broadcast(NewMessage("plan", "created", "p1", nil))
	}

	if got := len(c.send); got != sendBufferSize {
		t.Fatalf("expected a full buffer of %d, got %d", sendBufferSize, got)
	}
}
