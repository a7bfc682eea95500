// Package stream provides real-time tick distribution to multiple
// consumers via a fan-out hub.
package stream

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"cryptodesk/internal/models"
)

// AllSymbols subscribes to every symbol.
const AllSymbols = "*"

// HubConfig holds configuration for the tick hub.
type HubConfig struct {
	// BufferSize is the size of the internal tick channel buffer.
	BufferSize int
	// SubscriberBufferSize is the size of each subscriber's channel buffer.
	SubscriberBufferSize int
}

// DefaultHubConfig returns the default hub configuration.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		BufferSize:           1000,
		SubscriberBufferSize: 100,
	}
}

// Subscriber receives ticks for one subscription.
type Subscriber struct {
	ID        string
	Symbol    string
	Channel   chan models.Tick
	CreatedAt time.Time
}

// Hub fans ticks out from a single source to multiple subscribers. Slow
// subscribers have ticks dropped rather than blocking the broadcast.
type Hub struct {
	config HubConfig
	log    zerolog.Logger

	mu          sync.RWMutex
	subscribers map[string]*Subscriber

	tickChan chan models.Tick
	done     chan struct{}
	started  bool
	startMu  sync.Mutex

	ticksReceived uint64
	ticksDropped  uint64
	metricsMu     sync.RWMutex
}

// NewHub creates a new tick hub.
func NewHub(cfg HubConfig, logger zerolog.Logger) *Hub {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultHubConfig().BufferSize
	}
	if cfg.SubscriberBufferSize <= 0 {
		cfg.SubscriberBufferSize = DefaultHubConfig().SubscriberBufferSize
	}
	return &Hub{
		config:      cfg,
		log:         logger.With().Str("component", "stream").Logger(),
		subscribers: make(map[string]*Subscriber),
		tickChan:    make(chan models.Tick, cfg.BufferSize),
		done:        make(chan struct{}),
	}
}

// Start launches the broadcast loop. Starting twice is a no-op.
func (h *Hub) Start(ctx context.Context) {
	h.startMu.Lock()
	defer h.startMu.Unlock()
	if h.started {
		return
	}
	h.started = true

	go func() {
		defer close(h.done)
		for {
			select {
			case <-ctx.Done():
				return
			case tick := <-h.tickChan:
				h.broadcast(tick)
			}
		}
	}()
}

// Wait blocks until the broadcast loop has exited.
func (h *Hub) Wait() {
	<-h.done
}

// Publish enqueues a tick for broadcast. Ticks are dropped when the
// internal buffer is full.
func (h *Hub) Publish(tick models.Tick) {
	h.metricsMu.Lock()
	h.ticksReceived++
	h.metricsMu.Unlock()

	select {
	case h.tickChan <- tick:
	default:
		h.metricsMu.Lock()
		h.ticksDropped++
		h.metricsMu.Unlock()
	}
}

// Subscribe registers a subscriber for a symbol (or AllSymbols).
func (h *Hub) Subscribe(symbol string) *Subscriber {
	sub := &Subscriber{
		ID:        uuid.NewString(),
		Symbol:    symbol,
		Channel:   make(chan models.Tick, h.config.SubscriberBufferSize),
		CreatedAt: time.Now(),
	}

	h.mu.Lock()
	h.subscribers[sub.ID] = sub
	h.mu.Unlock()

	return sub
}

// Unsubscribe removes a subscriber and closes its channel.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subscribers[sub.ID]; !ok {
		return
	}
	delete(h.subscribers, sub.ID)
	close(sub.Channel)
}

// SubscriberCount returns the number of active subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Stats returns received and dropped tick counts.
func (h *Hub) Stats() (received, dropped uint64) {
	h.metricsMu.RLock()
	defer h.metricsMu.RUnlock()
	return h.ticksReceived, h.ticksDropped
}

func (h *Hub) broadcast(tick models.Tick) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subscribers {
		if sub.Symbol != AllSymbols && sub.Symbol != tick.Symbol {
			continue
		}
		select {
		case sub.Channel <- tick:
		default:
			// Slow consumer; drop this tick for this subscriber.
			h.metricsMu.Lock()
			h.ticksDropped++
			h.metricsMu.Unlock()
		}
	}
}
