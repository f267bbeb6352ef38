package ws

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

// waitForCount polls the hub until it reports n online sessions or the
// deadline passes. Register/unregister go through channels so the count
// update is asynchronous relative to the send.
func waitForCount(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.OnlineCount() == n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("online count never reached %d (last: %d)", n, hub.OnlineCount())
}

func newTestClient(hub *Hub, name string) *Client {
	return &Client{
		hub:     hub,
		staffID: uuid.New(),
		name:    name,
		send:    make(chan []byte, 1),
	}
}

func TestHub_RegisterIncreasesCount(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	if got := hub.OnlineCount(); got != 0 {
		t.Fatalf("fresh hub count = %d, want 0", got)
	}

	hub.register <- newTestClient(hub, "小李")
	waitForCount(t, hub, 1)

	hub.register <- newTestClient(hub, "小王")
	waitForCount(t, hub, 2)
}

func TestHub_UnregisterDecreasesCount(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	c := newTestClient(hub, "小李")
	hub.register <- c
	waitForCount(t, hub, 1)

	hub.unregister <- c
	waitForCount(t, hub, 0)

	// Unregister closes the send channel so WritePump exits.
	select {
	case _, ok := <-c.send:
		if ok {
			t.Error("expected send channel to be closed")
		}
	case <-time.After(time.Second):
		t.Error("send channel not closed after unregister")
	}
}

func TestHub_UnregisterUnknownClient(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	c := newTestClient(hub, "小李")
	hub.unregister <- c // never registered; must not panic or close anything twice
	waitForCount(t, hub, 0)
}
