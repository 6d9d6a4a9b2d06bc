// Package stream pushes status reports and alerts to websocket clients.
package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/donaldgifford/effluent-watch/internal/metrics"
	domain "github.com/donaldgifford/effluent-watch/pkg/types"
)

// Message types.
const (
	TypeStatusUpdate = "status_update"
	TypeAlert        = "alert"
)

const (
	defaultClientBuffer    = 64
	defaultBroadcastBuffer = 32
)

// Message is the envelope every frame is sent in.
type Message struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// AlertPayload is the data of an alert message: the records raised this
// cycle and the feed after they were added.
type AlertPayload struct {
	Raised []domain.AlertRecord `json:"raised"`
	Feed   []domain.AlertRecord `json:"feed"`
}

// Hub tracks websocket clients and fans messages out to them. It satisfies
// engine.Publisher; publishing never blocks the caller.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*client]struct{}
	lastStatus []byte

	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}

	upgrader     websocket.Upgrader
	clientBuffer int
	log          *slog.Logger
	now          func() time.Time
}

// Option configures the Hub.
type Option func(*Hub)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Hub) {
		h.log = l
	}
}

// WithClientBuffer sets how many messages may queue per client before the
// client is dropped.
func WithClientBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.clientBuffer = n
		}
	}
}

// WithAllowedOrigins restricts upgrades to the given Origin headers. An
// empty list accepts any origin.
func WithAllowedOrigins(origins []string) Option {
	return func(h *Hub) {
		if len(origins) == 0 {
			return
		}
		allowed := make(map[string]struct{}, len(origins))
		for _, o := range origins {
			allowed[o] = struct{}{}
		}
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			_, ok := allowed[origin]
			return ok
		}
	}
}

// WithClock overrides the message timestamp source.
func WithClock(now func() time.Time) Option {
	return func(h *Hub) {
		h.now = now
	}
}

// NewHub creates a Hub. Call Run to start delivering messages.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		clients:    make(map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, defaultBroadcastBuffer),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clientBuffer: defaultClientBuffer,
		log:          slog.Default(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run delivers messages until ctx is done, then disconnects every client.
// A Hub runs at most once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			metrics.StreamClients.Set(0)
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			if h.lastStatus != nil {
				c.send <- h.lastStatus
			}
			n := len(h.clients)
			h.mu.Unlock()
			metrics.StreamClients.Set(float64(n))
			h.log.Debug("stream client connected", "remote", c.remote, "clients", n)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			metrics.StreamClients.Set(float64(n))
			h.log.Debug("stream client disconnected", "remote", c.remote, "clients", n)

		case msg := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					h.log.Warn("stream client too slow, disconnecting", "remote", c.remote)
					metrics.StreamDroppedTotal.Inc()
					delete(h.clients, c)
					close(c.send)
				}
			}
			n := len(h.clients)
			h.mu.Unlock()
			metrics.StreamClients.Set(float64(n))
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and registers the connection.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	c := &client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, h.clientBuffer),
		remote: conn.RemoteAddr().String(),
	}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	case <-r.Context().Done():
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// PublishStatus sends a status_update message and remembers it for clients
// that connect later.
func (h *Hub) PublishStatus(report *domain.StatusReport) {
	if report == nil {
		return
	}
	msg, ok := h.encode(TypeStatusUpdate, report)
	if !ok {
		return
	}
	h.mu.Lock()
	h.lastStatus = msg
	h.mu.Unlock()
	h.enqueue(msg)
}

// PublishAlerts sends an alert message when anything was raised.
func (h *Hub) PublishAlerts(raised, feed []domain.AlertRecord) {
	if len(raised) == 0 {
		return
	}
	msg, ok := h.encode(TypeAlert, AlertPayload{Raised: raised, Feed: feed})
	if !ok {
		return
	}
	h.enqueue(msg)
}

func (h *Hub) encode(typ string, data any) ([]byte, bool) {
	b, err := json.Marshal(Message{Type: typ, Timestamp: h.now(), Data: data})
	if err != nil {
		h.log.Error("encoding stream message", "type", typ, "error", err)
		return nil, false
	}
	return b, true
}

func (h *Hub) enqueue(msg []byte) {
	select {
	case h.broadcast <- msg:
	default:
		metrics.StreamDroppedTotal.Inc()
		h.log.Warn("stream broadcast queue full, dropping message")
	}
}
