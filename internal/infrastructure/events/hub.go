// Package events fans store change events out to websocket subscribers. It replaces
// the browser storage events that kept open storefront and dashboard tabs in step.
package events

import (
	"context"
	"sort"
	"sync"

	"github.com/goccy/go-json"

	"github.com/bekkerfineart/gallery/internal/infrastructure/logger"
	"github.com/bekkerfineart/gallery/internal/infrastructure/metrics"
	"github.com/bekkerfineart/gallery/internal/ports"
)

// Message types
const (
	MessageTypeChange = "change"
	MessageTypePing   = "ping"
	MessageTypePong   = "pong"
)

const broadcastBuffer = 256

// Message is one websocket frame
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	clients   map[*Client]struct{}
	broadcast chan Message
	mu        sync.RWMutex
	logger    *logger.Logger
}

// NewHub creates a new Hub
func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.NewNop()
	}
	return &Hub{
		clients:   make(map[*Client]struct{}),
		broadcast: make(chan Message, broadcastBuffer),
		logger:    log.WithComponent("change-feed"),
	}
}

var _ ports.ChangePublisher = (*Hub)(nil)

// Publish queues a change event for every connected client. Events are dropped when
// the broadcast buffer is full.
func (h *Hub) Publish(event ports.ChangeEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Warnw("Failed to encode change event", "error", err.Error())
		return
	}

	select {
	case h.broadcast <- Message{Type: MessageTypeChange, Data: data}:
	default:
		h.logger.Warnw("Broadcast channel full, dropping change event",
			"collection", event.Collection,
			"action", event.Action,
		)
	}
}

// RunWithContext delivers queued messages until ctx is cancelled, then closes
// every client.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			n := h.ClientCount()
			h.closeAll()
			h.logger.Infow("Change feed stopped", "clients_closed", n)
			return ctx.Err()
		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

// String names the hub in supervisor logs
func (h *Hub) String() string { return "change-feed" }

// Serve implements suture.Service
func (h *Hub) Serve(ctx context.Context) error { return h.RunWithContext(ctx) }

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	metrics.FeedClients.Set(float64(n))
	h.logger.Debugw("Change feed client connected", "total_clients", n)
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()

	metrics.FeedClients.Set(float64(n))
	h.logger.Debugw("Change feed client disconnected", "total_clients", n)
}

// deliver sends msg to every client in id order. Clients whose buffer is full are dropped.
func (h *Hub) deliver(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, c := range h.sortedLocked() {
		select {
		case c.send <- msg:
		default:
			close(c.send)
			delete(h.clients, c)
		}
	}
	metrics.FeedClients.Set(float64(len(h.clients)))
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, c := range h.sortedLocked() {
		close(c.send)
		delete(h.clients, c)
	}
	metrics.FeedClients.Set(0)
}

func (h *Hub) sortedLocked() []*Client {
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })
	return clients
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
