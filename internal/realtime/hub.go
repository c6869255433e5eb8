// Package realtime streams store changes and due reminders to connected
// WebSocket clients.
package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aquatrack/aquatrack/internal/metrics"
	"github.com/aquatrack/aquatrack/internal/model"
	"github.com/aquatrack/aquatrack/internal/reminder"
)

// Event types.
const (
	EventHydration = "hydration"
	EventAuth      = "auth"
	EventReminder  = "reminder"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 25 * time.Second
	sendBuffer = 16
)

// Event is one message on the stream.
type Event struct {
	Type string    `json:"type"`
	At   time.Time `json:"at"`
	Data any       `json:"data"`
}

// client is one WebSocket connection. Only writePump writes to conn.
type client struct {
	userID string
	conn   *websocket.Conn
	send   chan []byte
}

// Hub tracks connections per user and fans events out to them.
type Hub struct {
	logger   *slog.Logger
	metrics  metrics.Recorder
	upgrader websocket.Upgrader
	now      func() time.Time

	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
	total   int64
}

// NewHub creates a Hub. Cross-origin upgrades are accepted only from
// allowedOrigins; requests without an Origin header are always accepted.
func NewHub(logger *slog.Logger, recorder metrics.Recorder, allowedOrigins []string) *Hub {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	h := &Hub{
		logger:  logger.With("component", "realtime.hub"),
		metrics: recorder,
		now:     time.Now,
		clients: make(map[string]map[*client]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[strings.ToLower(o)] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if set[strings.ToLower(origin)] {
			return true
		}
		return strings.EqualFold(strings.TrimPrefix(strings.TrimPrefix(origin, "http://"), "https://"), r.Host)
	}
}

// Serve upgrades the request and streams events for userID until the client
// disconnects.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", "error", err)
		return
	}

	c := &client{userID: userID, conn: conn, send: make(chan []byte, sendBuffer)}
	h.register(c)

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	if h.clients[c.userID] == nil {
		h.clients[c.userID] = make(map[*client]struct{})
	}
	h.clients[c.userID][c] = struct{}{}
	h.total++
	n := h.total
	h.metrics.SetEventSubscribers(n)
	h.mu.Unlock()

	h.logger.Info("client connected", "user_id", c.userID, "clients", n)
}

// unregister removes c and closes its send channel. Safe to call twice.
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	set := h.clients[c.userID]
	if _, ok := set[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
	close(c.send)
	h.total--
	n := h.total
	h.metrics.SetEventSubscribers(n)
	h.mu.Unlock()

	h.logger.Info("client disconnected", "user_id", c.userID, "clients", n)
}

// readPump discards inbound messages and keeps the read deadline fresh.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()

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
		_ = c.conn.Close()
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

// Broadcast queues an event for every connection of userID. Slow clients
// whose buffer is full are dropped.
func (h *Hub) Broadcast(userID, eventType string, data any) {
	msg, err := json.Marshal(Event{Type: eventType, At: h.now().UTC(), Data: data})
	if err != nil {
		h.logger.Error("encode event failed", "type", eventType, "error", err)
		return
	}

	var slow []*client
	h.mu.RLock()
	for c := range h.clients[userID] {
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("dropping slow client", "user_id", c.userID)
		h.unregister(c)
	}
	h.metrics.IncEventBroadcast()
}

// Disconnect closes every connection of userID.
func (h *Hub) Disconnect(userID string) {
	h.mu.RLock()
	conns := make([]*client, 0, len(h.clients[userID]))
	for c := range h.clients[userID] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		h.unregister(c)
	}
}

// Close disconnects every client. Hijacked connections are not closed by
// http.Server.Shutdown, so this runs as a shutdown hook.
func (h *Hub) Close(_ context.Context) error {
	h.mu.RLock()
	users := make([]string, 0, len(h.clients))
	for userID := range h.clients {
		users = append(users, userID)
	}
	h.mu.RUnlock()

	for _, userID := range users {
		h.Disconnect(userID)
	}
	return nil
}

// Clients returns the number of open connections.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return int(h.total)
}

// Notify delivers a due reminder as an in-app event.
func (h *Hub) Notify(_ context.Context, n reminder.Notification) error {
	h.Broadcast(n.UserID, EventReminder, n)
	return nil
}

// OnHydration forwards hydration snapshots to the owning user.
func (h *Hub) OnHydration(state model.HydrationState) {
	if state.UserID == "" {
		return
	}
	h.Broadcast(state.UserID, EventHydration, state)
}

// AuthListener returns a callback that mirrors auth changes to the user's
// connections and closes them on sign-out or when another user signs in.
func (h *Hub) AuthListener() func(model.AuthState) {
	var (
		mu      sync.Mutex
		current string
	)
	return func(state model.AuthState) {
		mu.Lock()
		defer mu.Unlock()

		if state.Loading {
			return
		}
		if state.IsAuthenticated && state.User != nil {
			if current != "" && current != state.User.ID {
				h.Disconnect(current)
			}
			current = state.User.ID
			h.Broadcast(current, EventAuth, state)
			return
		}
		if current != "" {
			h.Broadcast(current, EventAuth, state)
			h.Disconnect(current)
			current = ""
		}
	}
}
