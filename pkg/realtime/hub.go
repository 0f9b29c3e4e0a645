package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"liyu1981.xyz/sos-response-service/pkg/common"
)

type client struct {
	id     string
	topics map[string]bool
	ch     chan string
	done   chan struct{}
}

// Hub fans events out to Server-Sent Events subscribers grouped by topic. A slow subscriber
// loses messages instead of blocking publishers.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]*client
	topics   map[string]map[string]bool // topic -> client id set
	interval time.Duration
	retryMs  int
	seq      atomic.Uint64
	logger   *zap.Logger
}

func NewHub(interval time.Duration) *Hub {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Hub{
		clients:  make(map[string]*client),
		topics:   make(map[string]map[string]bool),
		interval: interval,
		retryMs:  5000,
		logger:   common.GetLoggerWith(common.LoggerNameRealtime, zap.String("transport", "sse")),
	}
}

func (h *Hub) addClient(id string, topics []string) *client {
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.clients[id]; ok {
		h.dropLocked(old)
	}
	c := &client{id: id, topics: make(map[string]bool), ch: make(chan string, 64), done: make(chan struct{})}
	h.clients[id] = c
	for _, t := range topics {
		c.topics[t] = true
		if h.topics[t] == nil {
			h.topics[t] = make(map[string]bool)
		}
		h.topics[t][id] = true
	}
	return c
}

// removeClient only drops c if it is still the registered subscriber for its id.
func (h *Hub) removeClient(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.id] == c {
		h.dropLocked(c)
	}
}

func (h *Hub) dropLocked(c *client) {
	close(c.done)
	for t := range c.topics {
		delete(h.topics[t], c.id)
		if len(h.topics[t]) == 0 {
			delete(h.topics, t)
		}
	}
	delete(h.clients, c.id)
}

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func formatEvent(id uint64, event string, data []byte) string {
	return fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", id, event, data)
}

func (h *Hub) Publish(_ context.Context, topic, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Could not encode event", zap.String("event", event), zap.Error(err))
		return
	}
	msg := formatEvent(h.seq.Add(1), event, data)

	h.mu.RLock()
	defer h.mu.RUnlock()
	for id := range h.topics[topic] {
		c := h.clients[id]
		if c == nil {
			continue
		}
		select {
		case c.ch <- msg:
		default:
			h.logger.Debug("Subscriber buffer full, event dropped", zap.String("client_id", id), zap.String("event", event))
		}
	}
}

// Serve streams events for topics to the request until the client goes away.
func (h *Hub) Serve(c *gin.Context, clientID string, topics []string) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)
	fmt.Fprintf(c.Writer, "retry: %d\n\n", h.retryMs)
	flusher.Flush()

	sub := h.addClient(clientID, topics)
	defer h.removeClient(sub)
	h.logger.Info("Subscriber connected", zap.String("client_id", clientID), zap.Strings("topics", topics))

	ping := time.NewTicker(h.interval)
	defer ping.Stop()

	for {
		select {
		case <-sub.done:
			return
		case <-c.Request.Context().Done():
			h.logger.Info("Subscriber disconnected", zap.String("client_id", clientID))
			return
		case <-ping.C:
			fmt.Fprint(c.Writer, "event: ping\ndata: {}\n\n")
			flusher.Flush()
		case msg := <-sub.ch:
			_, _ = c.Writer.Write([]byte(msg))
			flusher.Flush()
		}
	}
}
