// Package gateway fans emitted entry signals out to connected reporting
// collaborators over WebSocket. It carries no presentation logic — clients
// receive the raw signal records and render them however they like.
package gateway

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"bxscan/internal/model"

	"github.com/gorilla/websocket"
)

const (
	writeDeadline = 5 * time.Second
	pingInterval  = 30 * time.Second
	sendBuffer    = 64
)

// Envelope is the wire frame sent to clients.
type Envelope struct {
	Type    string          `json:"type"` // "entry_signal"
	TS      time.Time       `json:"ts"`
	Payload json.RawMessage `json:"payload"`
}

// client is one connected peer. All frames funnel through the send channel
// into a single write pump, so the connection only ever has one writer.
type client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

// Hub manages WebSocket clients and broadcasts signal events to all of them.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]bool
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Reporting clients connect from anywhere on the operator's network.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]bool),
	}
}

// HandleWS upgrades an HTTP request and registers the client until it
// disconnects. Clients are read-only; inbound messages are drained and
// discarded.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[gateway] upgrade: %v", err)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	h.clients[c] = true
	n := len(h.clients)
	h.mu.Unlock()
	log.Printf("[gateway] client connected (%d total)", n)

	go h.writePump(c)
	go func() {
		defer h.drop(c)
		for {
			if _, _, err := c.conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// writePump drains the client's send channel onto the connection. It is the
// connection's sole writer.
func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		h.drop(c)
	}()

	for {
		select {
		case frame := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// BroadcastSignals queues each signal for every connected client. Safe to
// call from concurrent analysis workers: frames are handed to the per-client
// write pumps, never written here. Clients too slow to drain their buffer are
// dropped.
func (h *Hub) BroadcastSignals(signals []model.EntrySignal) {
	if len(signals) == 0 {
		return
	}

	h.mu.RLock()
	conns := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c)
	}
	h.mu.RUnlock()
	if len(conns) == 0 {
		return
	}

	for _, s := range signals {
		env := Envelope{Type: "entry_signal", TS: time.Now().UTC(), Payload: s.JSON()}
		frame, err := json.Marshal(env)
		if err != nil {
			continue
		}
		for _, c := range conns {
			select {
			case c.send <- frame:
			case <-c.done:
			default:
				h.drop(c)
			}
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	if h.clients[c] {
		delete(h.clients, c)
		close(c.done)
		c.conn.Close()
	}
	h.mu.Unlock()
}
