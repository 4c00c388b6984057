package consumer

import (
	"context"

	"github.com/weiawesome/wes-io-conduit/pkg/pubsub"
)

// RelationEventHandler processes one decoded relation event.
type RelationEventHandler interface {
	HandleRelationEvent(ctx context.Context, event *pubsub.Event, payload *pubsub.RelationPayload) error
}

// RelationEventConsumer manages the event subscription lifecycle.
type RelationEventConsumer interface {
	Start(ctx context.Context) error
	Close() error
}
