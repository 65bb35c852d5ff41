// Package notification pushes split payment events to connected websocket clients.
package notification

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"splitpay/internal/domain"
	"splitpay/internal/split"
	"splitpay/pkg/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// client is one websocket subscriber. An empty account receives every event.
type client struct {
	id      uuid.UUID
	account domain.AccountID
	conn    *websocket.Conn
	send    chan []byte
}

// Hub fans split events out to websocket clients. Clients that fall behind
// are disconnected rather than blocking the publisher.
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]*client
	logger  logger.Logger
}

func NewHub(log logger.Logger) *Hub {
	return &Hub{
		clients: make(map[uuid.UUID]*client),
		logger:  log,
	}
}

// Observe is a split.Observer.
func (h *Hub) Observe(ev split.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("Failed to encode split event", map[string]interface{}{
			"request_id": ev.RequestID,
			"error":      err.Error(),
		})
		return
	}

	h.mu.RLock()
	var slow []*client
	for _, c := range h.clients {
		if !interested(c, ev) {
			continue
		}
		select {
		case c.send <- payload:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("Dropping slow websocket client", map[string]interface{}{
			"client_id": c.id,
		})
		h.unregister(c)
	}
}

func interested(c *client, ev split.Event) bool {
	if c.account == "" || ev.Account == c.account {
		return true
	}
	if ev.Record == nil {
		return false
	}
	for _, id := range ev.Record.InvolvedAccounts {
		if id == c.account {
			return true
		}
	}
	return false
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and streams events. The optional "account"
// query parameter restricts the stream to splits involving that account.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", map[string]interface{}{"error": err.Error()})
		return
	}

	c := &client{
		id:      uuid.New(),
		account: domain.AccountID(r.URL.Query().Get("account")),
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
	}
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()

	h.logger.Info("WebSocket client connected", map[string]interface{}{
		"client_id": c.id,
		"account":   c.account,
	})

	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c.id]; ok {
		delete(h.clients, c.id)
		close(c.send)
	}
	h.mu.Unlock()
}

// readPump discards client messages and detects disconnects.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		delete(h.clients, id)
		close(c.send)
	}
}
