package ws

import (
	"context"
	"log/slog"
	"sync"

	"incoin_webapp/internal/domain"
	"incoin_webapp/internal/logger"
	"incoin_webapp/internal/pricefeed"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	wsClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ws_feed_clients",
		Help: "Connected feed clients",
	})
	wsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ws_feed_dropped_total",
		Help: "Frames dropped for slow feed clients",
	})
)

func init() {
	prometheus.MustRegister(wsClients)
	prometheus.MustRegister(wsDropped)
}

// SnapshotFunc returns the frames a client receives right after it connects.
type SnapshotFunc func() [][]byte

// Hub fans out price ticks and leaderboard updates to every connected client.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*Client]struct{}
	snapshot SnapshotFunc
	log      *slog.Logger
}

func NewHub(snapshot SnapshotFunc) *Hub {
	return &Hub{
		clients:  make(map[*Client]struct{}),
		snapshot: snapshot,
		log:      logger.With("component", "ws_hub"),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	wsClients.Inc()
	h.log.Debug("client registered", "clients", n)

	if h.snapshot != nil {
		for _, frame := range h.snapshot() {
			c.enqueue(frame)
		}
	}
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()

	if ok {
		wsClients.Dec()
		c.close()
	}
}

// ClientCount is the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues frame on every client; slow clients drop it.
func (h *Hub) Broadcast(frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if !c.enqueue(frame) {
			wsDropped.Inc()
		}
	}
}

// Run forwards ticks and leaderboard updates until ctx is done or both
// sources close.
func (h *Hub) Run(ctx context.Context, prices <-chan pricefeed.Tick, boards <-chan []domain.LeaderboardEntry) {
	for prices != nil || boards != nil {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case tick, ok := <-prices:
			if !ok {
				prices = nil
				continue
			}
			h.publish(MsgPrice, PricePayload{Tick: tick})
		case entries, ok := <-boards:
			if !ok {
				boards = nil
				continue
			}
			h.publish(MsgLeaderboard, LeaderboardPayload{Entries: entries})
		}
	}
	h.closeAll()
}

func (h *Hub) publish(t string, payload any) {
	frame, err := Encode(t, payload)
	if err != nil {
		h.log.Error("encode frame", "type", t, "error", err)
		return
	}
	h.Broadcast(frame)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*Client]struct{})
	h.mu.Unlock()

	for c := range clients {
		wsClients.Dec()
		c.close()
	}
}
