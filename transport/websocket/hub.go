package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wricardo/mcp-training/rpsrelay/game/service"
	"github.com/wricardo/mcp-training/rpsrelay/metrics"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 1024

	// DefaultSendBuffer is the per-connection outbound queue length.
	DefaultSendBuffer = 64
)

// Message is the envelope for every event in both directions
type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// inboundMessage defers payload decoding until the event is known
type inboundMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Client represents a WebSocket connection
type Client struct {
	id        string
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	// rooms is guarded by hub.mu
	rooms map[string]bool
}

// ID returns the connection identity
func (c *Client) ID() string {
	return c.id
}

// Hub maintains the set of active clients and their rooms.
// It implements service.Broadcaster.
type Hub struct {
	// Registered clients by connection ID
	clients map[string]*Client

	// Room members by game code
	rooms map[string]map[string]*Client

	// Unregister requests from clients
	unregister chan *Client

	// Closed when Run returns
	stopped chan struct{}

	handler    service.GameService
	metrics    *metrics.Collector
	upgrader   websocket.Upgrader
	sendBuffer int
	mu         sync.RWMutex
}

// Option configures a Hub
type Option func(*Hub)

// WithMetrics records connection and event metrics on c
func WithMetrics(c *metrics.Collector) Option {
	return func(h *Hub) {
		h.metrics = c
	}
}

// WithAllowedOrigins restricts the Origin header on upgrade.
// An empty list or "*" allows every origin.
func WithAllowedOrigins(origins []string) Option {
	return func(h *Hub) {
		h.upgrader.CheckOrigin = originChecker(origins)
	}
}

// WithSendBuffer sets the per-connection outbound queue length
func WithSendBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.sendBuffer = n
		}
	}
}

// NewHub creates a new WebSocket hub
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[string]*Client),
		unregister: make(chan *Client),
		stopped:    make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(nil),
		},
		sendBuffer: DefaultSendBuffer,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// SetHandler sets the service inbound events are dispatched to.
// Must be called before the hub serves connections.
func (h *Hub) SetHandler(handler service.GameService) {
	h.handler = handler
}

// Run processes disconnects until ctx is cancelled, then closes every client
func (h *Hub) Run(ctx context.Context) {
	defer close(h.stopped)

	for {
		select {
		case client := <-h.unregister:
			h.unregisterClient(ctx, client)

		case <-ctx.Done():
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for _, c := range h.clients {
				clients = append(clients, c)
			}
			h.mu.RUnlock()

			for _, c := range clients {
				c.close()
			}
			return
		}
	}
}

// ServeWS handles WebSocket requests from clients
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		id:    uuid.NewString(),
		hub:   h,
		conn:  conn,
		send:  make(chan []byte, h.sendBuffer),
		done:  make(chan struct{}),
		rooms: make(map[string]bool),
	}

	h.registerClient(client)

	// Start client goroutines
	go client.writePump()
	go client.readPump()
}

// ConnectionCount returns the number of registered clients
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomSize returns the number of members in a room
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Emit sends an event to a single connection
func (h *Hub) Emit(connID, event string, data any) {
	payload, ok := encode(event, data)
	if !ok {
		return
	}

	h.mu.RLock()
	client := h.clients[connID]
	h.mu.RUnlock()

	if client != nil {
		client.enqueue(payload)
	}
}

// EmitToRoom sends an event to every room member except the named connection
func (h *Hub) EmitToRoom(room, event string, data any, except string) {
	payload, ok := encode(event, data)
	if !ok {
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.rooms[room]))
	for id, client := range h.rooms[room] {
		if id != except {
			targets = append(targets, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range targets {
		client.enqueue(payload)
	}
}

// JoinRoom adds a connection to a room
func (h *Hub) JoinRoom(connID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[connID]
	if !ok || room == "" {
		return
	}
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[string]*Client)
	}
	h.rooms[room][connID] = client
	client.rooms[room] = true
}

// LeaveRoom removes a connection from a room
func (h *Hub) LeaveRoom(connID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client, ok := h.clients[connID]; ok {
		delete(client.rooms, room)
	}
	h.removeFromRoomLocked(connID, room)
}

// CloseRoom removes every member from a room
func (h *Hub) CloseRoom(room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.rooms[room] {
		delete(client.rooms, room)
	}
	delete(h.rooms, room)
}

// registerClient adds a client before its pumps start so the first event
// it sends can join rooms
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client.id] = client
	total := len(h.clients)
	h.mu.Unlock()

	h.metrics.ConnectionOpened()
	log.Printf("Player connected: %s (total clients: %d)", client.id, total)
}

// unregisterClient drops a client from its rooms, then lets the service
// clean up the games it held
func (h *Hub) unregisterClient(ctx context.Context, client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client.id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client.id)
	for room := range client.rooms {
		h.removeFromRoomLocked(client.id, room)
	}
	client.rooms = make(map[string]bool)
	remaining := len(h.clients)
	h.mu.Unlock()

	client.close()
	h.metrics.ConnectionClosed()
	log.Printf("Player disconnected: %s (remaining clients: %d)", client.id, remaining)

	if h.handler != nil {
		h.handler.Disconnect(ctx, client.id)
	}
}

// removeFromRoomLocked must be called with h.mu held
func (h *Hub) removeFromRoomLocked(connID, room string) {
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

// scheduleUnregister hands a client to Run, or drops it if Run has returned
func (h *Hub) scheduleUnregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.stopped:
	}
}

// dispatch decodes one inbound frame and routes it to the service
func (h *Hub) dispatch(ctx context.Context, client *Client, data []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		h.Emit(client.id, service.EventError, service.ErrorPayload{Message: service.MessageInvalidRequest})
		h.metrics.ObserveEvent("invalid", err, 0)
		return
	}

	start := time.Now()
	err := h.route(ctx, client.id, msg)
	h.metrics.ObserveEvent(eventLabel(msg.Event), err, time.Since(start))
}

// route maps an event name to its service operation
func (h *Hub) route(ctx context.Context, connID string, msg inboundMessage) error {
	if h.handler == nil {
		return service.ErrUnknownEvent
	}

	switch msg.Event {
	case service.EventCreateGame:
		var req service.CreateGameRequest
		if err := h.decode(connID, msg.Data, &req); err != nil {
			return err
		}
		return h.handler.CreateGame(ctx, connID, req)

	case service.EventJoinGame:
		var req service.JoinGameRequest
		if err := h.decode(connID, msg.Data, &req); err != nil {
			return err
		}
		return h.handler.JoinGame(ctx, connID, req)

	case service.EventMakeChoice:
		var req service.MakeChoiceRequest
		if err := h.decode(connID, msg.Data, &req); err != nil {
			return err
		}
		return h.handler.MakeChoice(ctx, connID, req)

	case service.EventPlayAgain:
		var req service.PlayAgainRequest
		if err := h.decode(connID, msg.Data, &req); err != nil {
			return err
		}
		return h.handler.PlayAgain(ctx, connID, req)

	case service.EventLeaveGame:
		var req service.LeaveGameRequest
		if err := h.decode(connID, msg.Data, &req); err != nil {
			return err
		}
		return h.handler.LeaveGame(ctx, connID, req)

	default:
		h.Emit(connID, service.EventError, service.ErrorPayload{Message: service.MessageUnknownEvent})
		return service.ErrUnknownEvent
	}
}

// decode unmarshals a payload; on failure the caller gets an error event
func (h *Hub) decode(connID string, raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		h.Emit(connID, service.EventError, service.ErrorPayload{Message: service.MessageInvalidRequest})
		return service.ErrInvalidRequest
	}
	return nil
}

// enqueue queues a frame without blocking; a full queue closes the client
func (c *Client) enqueue(payload []byte) {
	select {
	case <-c.done:
		return
	default:
	}

	select {
	case c.send <- payload:
	default:
		log.Printf("Client %s send buffer full, closing connection", c.id)
		c.close()
	}
}

// close stops the write pump; the read pump then fails and unregisters
func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// readPump pumps messages from the WebSocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.hub.scheduleUnregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	ctx := context.Background()
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
		c.hub.dispatch(ctx, c, data)
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
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-c.done:
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// encode builds the wire frame for an event
func encode(event string, data any) ([]byte, bool) {
	payload, err := json.Marshal(Message{Event: event, Data: data})
	if err != nil {
		log.Printf("Failed to marshal WebSocket message %s: %v", event, err)
		return nil, false
	}
	return payload, true
}

// eventLabel bounds metric label cardinality to known events
func eventLabel(event string) string {
	switch event {
	case service.EventCreateGame, service.EventJoinGame, service.EventMakeChoice,
		service.EventPlayAgain, service.EventLeaveGame:
		return event
	default:
		return "unknown"
	}
}

// originChecker allows the listed origins; empty or "*" allows all
func originChecker(origins []string) func(*http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		if o != "" {
			allowed[strings.ToLower(strings.TrimRight(o, "/"))] = true
		}
	}
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return allowed[strings.ToLower(u.Scheme+"://"+u.Host)]
	}
}
