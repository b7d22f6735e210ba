package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wricardo/tile-pathfinder/game/engine"
	"github.com/wricardo/tile-pathfinder/game/service"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	// Outbound messages buffered per client before it is dropped.
	sendBuffer = 256
)

// Events pushed to clients
const (
	EventState      = "state_update"
	EventRun        = "run_complete"
	EventComparison = "comparison_complete"
	EventDeleted    = "session_deleted"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is the envelope sent to WebSocket clients
type Message struct {
	SessionID string               `json:"session_id"`
	Event     string               `json:"event"`
	State     *engine.Snapshot     `json:"state,omitempty"`
	Result    *service.RunReport   `json:"result,omitempty"`
	Results   []*service.RunReport `json:"results,omitempty"`
	Data      interface{}          `json:"data,omitempty"`
}

// Client is one WebSocket connection watching a session
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
}

// Hub maintains the set of active clients and broadcasts messages. Session
// IDs are case-insensitive, matching the session manager.
type Hub struct {
	// Registered clients by lowercased session ID
	sessions map[string]map[*Client]bool
	mu       sync.RWMutex

	// Events queued by BroadcastEvent
	broadcast chan *Message

	logger *slog.Logger
}

// NewHub creates a new WebSocket hub. A nil logger uses slog.Default.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		sessions:  make(map[string]map[*Client]bool),
		broadcast: make(chan *Message, 64),
		logger:    logger,
	}
}

// Run processes queued events until ctx is done, then disconnects every
// client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case message := <-h.broadcast:
			h.broadcastMessage(message)
			if message.Event == EventDeleted {
				h.closeSession(sessionKey(message.SessionID))
			}
		}
	}
}

// ServeWS upgrades the request and subscribes the connection to sessionID.
// initial, when non-nil, is the first message the client receives.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sessionID string, initial *engine.Snapshot) {
	sessionID = sessionKey(sessionID)
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "session", sessionID, "error", err)
		return
	}

	client := &Client{
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
		sessionID: sessionID,
	}
	if initial != nil {
		if data, err := json.Marshal(&Message{SessionID: sessionID, Event: EventState, State: initial}); err == nil {
			client.send <- data
		}
	}
	h.registerClient(client)

	go client.writePump()
	go client.readPump()
}

// BroadcastState sends a board snapshot to every client of a session
func (h *Hub) BroadcastState(sessionID string, state *engine.Snapshot) {
	h.broadcastMessage(&Message{
		SessionID: sessionID,
		Event:     EventState,
		State:     state,
	})
}

// BroadcastRun sends a finished run and the resulting board
func (h *Hub) BroadcastRun(sessionID string, resp *service.RunResponse) {
	h.broadcastMessage(&Message{
		SessionID: sessionID,
		Event:     EventRun,
		State:     resp.State,
		Result:    resp.Result,
	})
}

// BroadcastComparison sends one report per strategy
func (h *Hub) BroadcastComparison(sessionID string, resp *service.CompareResponse) {
	h.broadcastMessage(&Message{
		SessionID: sessionID,
		Event:     EventComparison,
		Results:   resp.Results,
	})
}

// BroadcastEvent queues a custom event for the Run loop. The event is
// dropped when the queue is full.
func (h *Hub) BroadcastEvent(sessionID string, event string, data interface{}) {
	select {
	case h.broadcast <- &Message{
		SessionID: sessionID,
		Event:     event,
		Data:      data,
	}:
	default:
		h.logger.Warn("broadcast queue full, event dropped", "session", sessionID, "event", event)
	}
}

// ClientCount returns the number of clients watching a session
func (h *Hub) ClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionKey(sessionID)])
}

func sessionKey(sessionID string) string {
	return strings.ToLower(sessionID)
}

// registerClient adds a client to a session
func (h *Hub) registerClient(client *Client) {
	client.sessionID = sessionKey(client.sessionID)
	h.mu.Lock()
	if h.sessions[client.sessionID] == nil {
		h.sessions[client.sessionID] = make(map[*Client]bool)
	}
	h.sessions[client.sessionID][client] = true
	total := len(h.sessions[client.sessionID])
	h.mu.Unlock()

	h.logger.Debug("websocket client registered", "session", client.sessionID, "clients", total)
}

// unregisterClient removes a client from a session. It is safe to call more
// than once for the same client.
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	clients, ok := h.sessions[client.sessionID]
	if !ok || !clients[client] {
		h.mu.Unlock()
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.sessions, client.sessionID)
	}
	remaining := len(clients)
	h.mu.Unlock()

	h.logger.Debug("websocket client unregistered", "session", client.sessionID, "clients", remaining)
}

// broadcastMessage sends a message to all clients in a session. Clients
// whose buffer is full are dropped.
func (h *Hub) broadcastMessage(message *Message) {
	message.SessionID = sessionKey(message.SessionID)
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("failed to marshal websocket message", "event", message.Event, "error", err)
		return
	}

	var slow []*Client
	h.mu.RLock()
	for client := range h.sessions[message.SessionID] {
		select {
		case client.send <- data:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.unregisterClient(client)
	}
}

// closeSession disconnects every client of a deleted session once its queued
// messages are written
func (h *Hub) closeSession(sessionID string) {
	h.mu.Lock()
	clients := h.sessions[sessionID]
	delete(h.sessions, sessionID)
	for client := range clients {
		close(client.send)
	}
	h.mu.Unlock()

	if len(clients) > 0 {
		h.logger.Debug("websocket session closed", "session", sessionID, "clients", len(clients))
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, clients := range h.sessions {
		for client := range clients {
			close(client.send)
		}
		delete(h.sessions, id)
	}
}

// readPump keeps the connection alive and detects disconnects. Clients do
// not send commands over the socket.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregisterClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("websocket read failed", "session", c.sessionID, "error", err)
			}
			return
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// One JSON message per frame
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
