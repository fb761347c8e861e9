package broadcast

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/shikhar190399/q-and-a-websockets/internal/adapter/metrics"
	"github.com/shikhar190399/q-and-a-websockets/internal/domain"
)

// Stats summarizes one broadcast.
type Stats struct {
	Delivered int
	Evicted   int
}

// Broadcaster delivers events to every session in a Registry.
type Broadcaster struct {
	registry *Registry
	clock    clockwork.Clock
	metrics  *metrics.WebSocketMetrics

	// mu is the single ordering point for all broadcasts.
	mu sync.Mutex
}

var _ domain.EventPublisher = (*Broadcaster)(nil)

func NewBroadcaster(registry *Registry, clock clockwork.Clock, m *metrics.WebSocketMetrics) *Broadcaster {
	return &Broadcaster{registry: registry, clock: clock, metrics: m}
}

// Publish implements domain.EventPublisher.
func (b *Broadcaster) Publish(ctx context.Context, event domain.Event) {
	b.Broadcast(ctx, event)
}

// Broadcast serializes event once and enqueues it for every live session.
// It never blocks on a peer; sessions that cannot take the frame are
// unregistered before the next broadcast starts.
func (b *Broadcaster) Broadcast(ctx context.Context, event domain.Event) Stats {
	frame, err := json.Marshal(event)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to marshal event", "type", event.Type, "error", err)
		return Stats{}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	start := b.clock.Now()
	var stats Stats
	var evict []*Session
	for _, s := range b.registry.Snapshot() {
		switch s.trySend(frame) {
		case delivered:
			stats.Delivered++
		case failed:
			evict = append(evict, s)
		}
	}

	for _, s := range evict {
		b.registry.Unregister(s)
	}
	stats.Evicted = len(evict)

	b.metrics.EventsBroadcast.WithLabelValues(string(event.Type)).Inc()
	b.metrics.Deliveries.WithLabelValues("delivered").Add(float64(stats.Delivered))
	b.metrics.Deliveries.WithLabelValues("evicted").Add(float64(stats.Evicted))
	b.metrics.BroadcastDuration.Observe(b.clock.Since(start).Seconds())

	if stats.Evicted > 0 {
		slog.WarnContext(ctx, "Evicted sessions during broadcast", "type", event.Type, "evicted", stats.Evicted)
	}
	slog.DebugContext(ctx, "Event broadcast", "type", event.Type, "delivered", stats.Delivered)
	return stats
}
