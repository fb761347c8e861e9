package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/shikhar190399/q-and-a-websockets/internal/adapter/metrics"
	"github.com/shikhar190399/q-and-a-websockets/internal/domain"
)

const (
	// EventsChannel carries question-board events between instances.
	EventsChannel = "qaboard:events"

	publishTimeout = 2 * time.Second
	// outboundBuffer bounds events waiting for a slow or unreachable Redis.
	outboundBuffer = 256
)

type relayMessage struct {
	Origin string          `json:"origin"`
	Event  json.RawMessage `json:"event"`
}

type outboundMessage struct {
	ctx       context.Context
	eventType domain.EventType
	payload   []byte
}

type relayEvent struct {
	Type domain.EventType `json:"type"`
	Data json.RawMessage  `json:"data"`
}

// Relay forwards locally published events to peer instances over Redis
// pub/sub and replays peer events into the local publisher. Outbound events
// are queued and sent by a single goroutine, so peers see them in publish
// order and callers never wait on Redis.
type Relay struct {
	rdb      *goredis.Client
	origin   string
	local    domain.EventPublisher
	metrics  *metrics.RedisMetrics
	outbound chan outboundMessage
}

var _ domain.EventPublisher = (*Relay)(nil)

// NewRelay creates a relay for this instance. local receives events that
// originate on other instances.
func NewRelay(rdb *goredis.Client, origin string, local domain.EventPublisher, m *metrics.RedisMetrics) *Relay {
	return newRelay(rdb, origin, local, m, outboundBuffer)
}

func newRelay(rdb *goredis.Client, origin string, local domain.EventPublisher, m *metrics.RedisMetrics, buffer int) *Relay {
	return &Relay{
		rdb:      rdb,
		origin:   origin,
		local:    local,
		metrics:  m,
		outbound: make(chan outboundMessage, buffer),
	}
}

// Publish queues event for peers and returns immediately. A full queue
// drops the event; the mutation that produced it has already succeeded.
func (r *Relay) Publish(ctx context.Context, event domain.Event) {
	payload, err := r.encode(event)
	if err != nil {
		r.metrics.RelayPublished.WithLabelValues("error").Inc()
		slog.ErrorContext(ctx, "Failed to encode relay message", "type", event.Type, "error", err)
		return
	}

	msg := outboundMessage{ctx: context.WithoutCancel(ctx), eventType: event.Type, payload: payload}
	select {
	case r.outbound <- msg:
	default:
		r.metrics.RelayPublished.WithLabelValues("dropped").Inc()
		slog.WarnContext(ctx, "Relay queue full, dropping event", "type", event.Type)
	}
}

// drain sends queued events to Redis until ctx is cancelled.
func (r *Relay) drain(ctx context.Context) {
	for {
		select {
		case msg := <-r.outbound:
			r.send(msg)
		case <-ctx.Done():
			return
		}
	}
}

func (r *Relay) send(msg outboundMessage) {
	ctx, cancel := context.WithTimeout(msg.ctx, publishTimeout)
	defer cancel()

	if err := r.rdb.Publish(ctx, EventsChannel, msg.payload).Err(); err != nil {
		r.metrics.RelayPublished.WithLabelValues("error").Inc()
		slog.WarnContext(ctx, "Failed to relay event to peers", "type", msg.eventType, "error", err)
		return
	}
	r.metrics.RelayPublished.WithLabelValues("success").Inc()
}

func (r *Relay) encode(event domain.Event) ([]byte, error) {
	raw, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return json.Marshal(relayMessage{Origin: r.origin, Event: raw})
}

// Start subscribes to the events channel and returns once the subscription
// is confirmed. Outbound sends and inbound delivery run in the background
// until ctx is cancelled.
func (r *Relay) Start(ctx context.Context) error {
	sub := r.rdb.Subscribe(ctx, EventsChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("failed to subscribe to %s: %w", EventsChannel, err)
	}

	go r.drain(ctx)
	go r.listen(ctx, sub)
	slog.Info("Relay subscribed", "channel", EventsChannel, "origin", r.origin)
	return nil
}

func (r *Relay) listen(ctx context.Context, sub *goredis.PubSub) {
	defer func() {
		_ = sub.Close()
	}()

	ch := sub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			r.handle(ctx, msg.Payload)
		case <-ctx.Done():
			return
		}
	}
}

func (r *Relay) handle(ctx context.Context, payload string) {
	var msg relayMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		r.metrics.RelayReceived.WithLabelValues("malformed").Inc()
		slog.Warn("Dropping malformed relay message", "error", err)
		return
	}
	if msg.Origin == r.origin {
		r.metrics.RelayReceived.WithLabelValues("own").Inc()
		return
	}

	var event relayEvent
	if err := json.Unmarshal(msg.Event, &event); err != nil || event.Type == "" {
		r.metrics.RelayReceived.WithLabelValues("malformed").Inc()
		slog.Warn("Dropping relay message without event", "origin", msg.Origin)
		return
	}

	r.metrics.RelayReceived.WithLabelValues("delivered").Inc()
	r.local.Publish(ctx, domain.Event{Type: event.Type, Data: event.Data})
}
