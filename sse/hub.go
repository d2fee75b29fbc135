package sse

import (
	"path/filepath"
	"sync"

	"github.com/kbukum/verbatim/logger"
)

const clientBuffer = 64

// Client is one connected stream.
type Client struct {
	id     string
	events chan Frame
	log    *logger.Logger
}

// NewClient creates a client with a buffered frame channel.
func NewClient(id string) *Client {
	return &Client{id: id, events: make(chan Frame, clientBuffer)}
}

// ID returns the client id used for pattern matching.
func (c *Client) ID() string { return c.id }

// Events returns the channel frames are delivered on. It is closed when
// the client is unregistered or the hub stops.
func (c *Client) Events() <-chan Frame { return c.events }

// Send queues f. It returns false if the client is too slow and the frame
// was dropped.
func (c *Client) Send(f Frame) bool {
	select {
	case c.events <- f:
		return true
	default:
		if c.log != nil {
			c.log.Warn("Client buffer full, dropping frame", logger.Fields("client_id", c.id))
		}
		return false
	}
}

func (c *Client) close() { close(c.events) }

// Hub owns the client set. Registration, removal and broadcast all go
// through Run's loop.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan message
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
	log        *logger.Logger
}

type message struct {
	pattern string
	frame   Frame
}

// NewHub creates a hub. Call Run to start routing.
func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan message, 256),
		done:       make(chan struct{}),
		log:        log.WithComponent("sse"),
	}
}

// Run routes messages until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.closeAll()
			return

		case c := <-h.register:
			h.mu.Lock()
			if old, ok := h.clients[c.id]; ok {
				old.close()
			}
			h.clients[c.id] = c
			n := len(h.clients)
			h.mu.Unlock()
			h.log.Debug("Client registered", logger.Fields("client_id", c.id, "total_clients", n))

		case c := <-h.unregister:
			h.mu.Lock()
			if cur, ok := h.clients[c.id]; ok && cur == c {
				delete(h.clients, c.id)
				c.close()
			}
			h.mu.Unlock()

		case m := <-h.broadcast:
			h.deliver(m)
		}
	}
}

// Stop closes every client and ends Run. Safe to call more than once.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		c.close()
		delete(h.clients, id)
	}
}

// Register adds c. It returns false if the hub is stopped, in which case
// c's channel is closed.
func (h *Hub) Register(c *Client) bool {
	c.log = h.log
	select {
	case h.register <- c:
		return true
	case <-h.done:
		c.close()
		return false
	}
}

// Unregister removes c and closes its channel.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// BroadcastToPattern queues f for every client matching pattern. It never
// blocks once the hub has stopped.
func (h *Hub) BroadcastToPattern(pattern string, f Frame) {
	select {
	case h.broadcast <- message{pattern: pattern, frame: f}:
	case <-h.done:
	}
}

func (h *Hub) deliver(m message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for id, c := range h.clients {
		matched, err := filepath.Match(m.pattern, id)
		if err != nil {
			h.log.Error("Bad broadcast pattern", logger.Fields("pattern", m.pattern, logger.FieldError, err.Error()))
			return
		}
		if matched && c.Send(m.frame) {
			sent++
		}
	}
	if h.log.IsDebug() {
		h.log.Debug("Broadcast", logger.Fields("pattern", m.pattern, "event", m.frame.Event, "match_count", sent))
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Client returns the client registered under id, or nil.
func (h *Hub) Client(id string) *Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clients[id]
}

var _ Broadcaster = (*Hub)(nil)
