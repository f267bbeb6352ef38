package ws

import "sync"

// Hub tracks the set of connected staff sessions. The dashboard reads
// the session count through its Presence interface; the hub does not
// push order or stock state to clients.
type Hub struct {
	// Connected sessions
	sessions map[*Client]bool

	// Inbound register/unregister from clients
	register   chan *Client
	unregister chan *Client

	// Mutex for session set access
	mu sync.RWMutex
}

// NewHub creates a new Hub instance.
func NewHub() *Hub {
	return &Hub{
		sessions:   make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's main loop.
// This should be called as a goroutine: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.sessions[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.sessions[client]; ok {
				delete(h.sessions, client)
				close(client.send)
			}
			h.mu.Unlock()
		}
	}
}

// OnlineCount reports the number of currently connected staff sessions.
func (h *Hub) OnlineCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}
