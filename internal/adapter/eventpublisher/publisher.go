// Package eventpublisher fans a mutation event out to the local broadcaster
// and to any peer relays.
package eventpublisher

import (
	"context"

	"github.com/shikhar190399/q-and-a-websockets/internal/domain"
)

// EventPublisher implements domain.EventPublisher by composing the local
// broadcaster with cross-instance relays.
type EventPublisher struct {
	local domain.EventPublisher
	peers []domain.EventPublisher
}

var _ domain.EventPublisher = (*EventPublisher)(nil)

func New(local domain.EventPublisher, peers ...domain.EventPublisher) *EventPublisher {
	return &EventPublisher{local: local, peers: peers}
}

// Publish delivers to local clients first so they never wait on a peer.
func (ep *EventPublisher) Publish(ctx context.Context, event domain.Event) {
	ep.local.Publish(ctx, event)
	for _, p := range ep.peers {
		p.Publish(ctx, event)
	}
}
