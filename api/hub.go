package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"vantage/logger"
)

// hubWriteTimeout bounds a single client write so one slow reader can't stall
// the broadcast goroutine indefinitely.
const hubWriteTimeout = 5 * time.Second

// hubSendBuffer is how many pending messages a client's send channel holds;
// once it is full the hub drops new events for that client but keeps the
// connection open.
const hubSendBuffer = 16

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Event is the envelope every websocket message is wrapped in (spec.md §6:
// `{type: "full_state", data: <snapshot>}` on connect/refresh, `{type:
// "alert", data: <alert>}` on webhook receipt).
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// client is one connected websocket consumer: a read-independent send
// channel drained by its own writer goroutine, per the standard
// gorilla/websocket hub pattern (register/unregister/broadcast channels, one
// writer goroutine per connection).
type client struct {
	id   string
	conn *websocket.Conn
	send chan Event
}

// Hub fans broadcast events out to every connected client and implements
// scheduler.Broadcaster so the scheduler can push state after every cycle
// without importing package api.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client

	register   chan *client
	unregister chan *client
	broadcast  chan Event
}

// NewHub builds an unstarted Hub; call Run to start its event loop.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*client),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan Event, 64),
	}
}

// Run drives the hub's register/unregister/broadcast loop until ctx-like
// shutdown is signaled by closing stop.
func (h *Hub) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			h.mu.Lock()
			for _, c := range h.clients {
				close(c.send)
			}
			h.clients = make(map[string]*client)
			h.mu.Unlock()
			return
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c.id] = c
			h.mu.Unlock()
		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c.id]; ok {
				delete(h.clients, c.id)
				close(c.send)
			}
			h.mu.Unlock()
		case evt := <-h.broadcast:
			h.mu.RLock()
			for _, c := range h.clients {
				select {
				case c.send <- evt:
				default:
					logger.Warnf("api: websocket client %s send buffer full, dropping", c.id)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast implements scheduler.Broadcaster: it wraps payload in an Event
// envelope and hands it to the hub loop for fan-out to every connected
// client. The hand-off channel holds 64 events; Broadcast blocks only when
// that buffer is full.
func (h *Hub) Broadcast(event string, payload interface{}) {
	h.broadcast <- Event{Type: event, Data: payload}
}

// ServeWS upgrades r to a websocket connection, registers the client, sends
// it one immediate full_state snapshot, and runs its write pump until the
// connection closes.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, initial Event) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warnf("api: websocket upgrade failed: %v", err)
		return
	}

	c := &client{id: uuid.NewString(), conn: conn, send: make(chan Event, hubSendBuffer)}
	h.register <- c
	c.send <- initial

	go h.readPump(c)
	h.writePump(c)
}

// readPump drains (and discards) incoming frames purely to detect
// disconnects/ping-pong; vantage's websocket surface is server-push only.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	defer c.conn.Close()
	for evt := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(hubWriteTimeout))
		body, err := json.Marshal(evt)
		if err != nil {
			logger.Warnf("api: failed to marshal websocket event %s: %v", evt.Type, err)
			continue
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, body); err != nil {
			return
		}
	}
}
