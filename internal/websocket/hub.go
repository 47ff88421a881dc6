package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"claimpulse/internal/infrastructure"
)

// Message types pushed by the hub.
const (
	TypeConnection = "connection"
)

const (
	broadcastQueue = 16

	defaultPingPeriod = 54 * time.Second
	defaultPongWait   = 60 * time.Second
)

// Message is the envelope of every pushed message.
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// Hub maintains the set of active clients and broadcasts messages to them.
// The most recent broadcast is replayed to clients as they connect so a new
// dashboard does not wait for the next refresh.
type Hub struct {
	clients map[*Client]bool
	mu      sync.RWMutex

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	// last is owned by the Run goroutine.
	last []byte

	pingPeriod time.Duration
	pongWait   time.Duration

	logger  *slog.Logger
	metrics *infrastructure.PipelineMetrics

	messagesSent atomic.Int64
	dropped      atomic.Int64

	quit    chan struct{}
	done    chan struct{}
	running bool
	stopped bool
}

// NewHub creates a new Hub. metrics may be nil.
func NewHub(logger *slog.Logger, metrics *infrastructure.PipelineMetrics) *Hub {
	if logger == nil {
		logger = slog.Default()
	}

	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, broadcastQueue),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		metrics:    metrics,
		pingPeriod: defaultPingPeriod,
		pongWait:   defaultPongWait,
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// SetKeepalive sets the ping period and pong deadline of clients connected
// afterwards. ping must be shorter than pong; invalid pairs are ignored.
func (h *Hub) SetKeepalive(ping, pong time.Duration) {
	if ping <= 0 || ping >= pong {
		return
	}
	h.mu.Lock()
	h.pingPeriod, h.pongWait = ping, pong
	h.mu.Unlock()
}

func (h *Hub) keepalive() (ping, pong time.Duration) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.pingPeriod, h.pongWait
}

// Start runs the hub loop in its own goroutine. It is idempotent.
func (h *Hub) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running || h.stopped {
		return
	}
	h.running = true
	go h.run()
}

func (h *Hub) run() {
	defer close(h.done)
	ctx := context.Background()

	for {
		select {
		case <-h.quit:
			h.mu.Lock()
			n := len(h.clients)
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			h.metrics.AddWebSocketClients(ctx, -int64(n))
			h.logger.Info("hub shutting down", slog.Int("disconnected_clients", n))
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.metrics.AddWebSocketClients(ctx, 1)

			h.logger.Info("client registered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr))

			if greeting, err := encode(TypeConnection, map[string]interface{}{
				"status":    "connected",
				"client_id": client.id,
			}, client.traceID); err == nil {
				h.deliver(client, greeting)
			}
			if h.last != nil {
				h.deliver(client, h.last)
			}

		case client := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[client]
			if ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()

			if ok {
				h.metrics.AddWebSocketClients(ctx, -1)
				h.logger.Info("client unregistered",
					slog.Int("total_clients", count),
					slog.String("client_id", client.id),
					slog.Duration("connection_duration", time.Since(client.connectedAt)))
			}

		case message := <-h.broadcast:
			h.last = message

			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			for _, client := range clients {
				h.deliver(client, message)
			}
			h.logger.Debug("broadcast delivered",
				slog.Int("client_count", len(clients)),
				slog.Int("message_size", len(message)))
		}
	}
}

// deliver queues message for client, disconnecting it when its buffer is
// full. Only called from run.
func (h *Hub) deliver(client *Client, message []byte) {
	select {
	case client.send <- message:
		h.messagesSent.Add(1)
	default:
		h.mu.Lock()
		_, ok := h.clients[client]
		if ok {
			delete(h.clients, client)
			close(client.send)
		}
		h.mu.Unlock()
		if ok {
			h.metrics.AddWebSocketClients(context.Background(), -1)
			h.logger.Warn("client send buffer full, disconnecting",
				slog.String("client_id", client.id))
		}
	}
}

func encode(messageType string, data interface{}, traceID string) ([]byte, error) {
	return json.Marshal(Message{
		Type:      messageType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		TraceID:   traceID,
	})
}

// Broadcast sends data to every connected client. It never blocks: when the
// queue is full the message is dropped and counted.
func (h *Hub) Broadcast(messageType string, data interface{}) {
	payload, err := encode(messageType, data, "")
	if err != nil {
		h.logger.Error("failed to marshal broadcast",
			slog.String("message_type", messageType),
			slog.String("error", err.Error()))
		return
	}

	select {
	case h.broadcast <- payload:
	default:
		h.dropped.Add(1)
		h.logger.Warn("broadcast queue full, dropping message",
			slog.String("message_type", messageType))
	}
}

// Register adds a client. It reports false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.quit:
		return false
	}
}

func (h *Hub) unregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stats reports delivery counters.
func (h *Hub) Stats() map[string]int64 {
	return map[string]int64{
		"active_clients": int64(h.ClientCount()),
		"messages_sent":  h.messagesSent.Load(),
		"dropped":        h.dropped.Load(),
	}
}

// Stop disconnects every client and waits for the hub loop to exit.
func (h *Hub) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	wasRunning := h.running
	h.running = false
	h.mu.Unlock()

	close(h.quit)
	if wasRunning {
		<-h.done
	}
}
