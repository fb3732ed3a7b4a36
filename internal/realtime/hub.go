package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	clientBuffer      = 16
	heartbeatInterval = 15 * time.Second
)

// Client is one SSE connection.
type Client struct {
	ID       uuid.UUID
	Rooms    map[string]bool
	Outbound chan Message
	done     chan struct{}
	once     sync.Once
}

// Hub fans events out to SSE clients subscribed to a room.
type Hub struct {
	mu            sync.RWMutex
	logger        *zap.Logger
	subscriptions map[string]map[*Client]bool
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger:        logger.With(zap.String("component", "sse_hub")),
		subscriptions: make(map[string]map[*Client]bool),
	}
}

func (h *Hub) NewClient() *Client {
	return &Client{
		ID:       uuid.New(),
		Rooms:    make(map[string]bool),
		Outbound: make(chan Message, clientBuffer),
		done:     make(chan struct{}),
	}
}

func (h *Hub) Join(c *Client, room string) {
	room = strings.TrimSpace(room)
	if room == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	c.Rooms[room] = true
	clients, ok := h.subscriptions[room]
	if !ok {
		clients = make(map[*Client]bool)
		h.subscriptions[room] = clients
	}
	clients[c] = true

	h.logger.Debug("client joined room", zap.String("client_id", c.ID.String()), zap.String("room", room))
}

// Close unsubscribes the client from every room and closes its outbound channel.
func (h *Hub) Close(c *Client) {
	c.once.Do(func() {
		h.mu.Lock()
		for room := range c.Rooms {
			if clients, ok := h.subscriptions[room]; ok {
				delete(clients, c)
				if len(clients) == 0 {
					delete(h.subscriptions, room)
				}
			}
		}
		c.Rooms = make(map[string]bool)
		h.mu.Unlock()

		close(c.done)
		close(c.Outbound)
	})
}

// Broadcast delivers msg to every client in msg.Room. Clients with a full
// buffer miss the message.
func (h *Hub) Broadcast(msg Message) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for c := range h.subscriptions[msg.Room] {
		select {
		case c.Outbound <- msg:
			delivered++
		default:
			h.logger.Warn("dropping live message, outbound buffer full",
				zap.String("client_id", c.ID.String()),
				zap.String("room", msg.Room),
			)
		}
	}
	return delivered
}

// Emit implements Emitter. Having no subscriber in the room is not an error.
func (h *Hub) Emit(_ context.Context, room, event string, data any) error {
	h.Broadcast(Message{Room: room, Event: event, Data: data})
	return nil
}

// Serve streams the client's messages as server-sent events until the request
// context ends or the client is closed.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, c *Client) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-c.done:
			return
		case <-heartbeat.C:
			_, _ = fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case msg, ok := <-c.Outbound:
			if !ok {
				return
			}
			raw, err := json.Marshal(msg)
			if err != nil {
				h.logger.Warn("failed to marshal live message", zap.Error(err))
				continue
			}
			_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Event, raw)
			flusher.Flush()
		}
	}
}
