package consumer

import (
	"context"
	"fmt"

	"github.com/weiawesome/wes-io-conduit/internal/store"
	pkglog "github.com/weiawesome/wes-io-conduit/pkg/log"
	"github.com/weiawesome/wes-io-conduit/pkg/pubsub"
)

// PubSubConsumer reads relation events from the event bus and hands them to
// a handler.
type PubSubConsumer struct {
	sub     pubsub.Subscriber
	pattern string
	handler RelationEventHandler
	doneCh  chan struct{}
}

// NewPubSubConsumer creates a consumer for one channel pattern.
func NewPubSubConsumer(sub pubsub.Subscriber, pattern string, handler RelationEventHandler) *PubSubConsumer {
	return &PubSubConsumer{
		sub:     sub,
		pattern: pattern,
		handler: handler,
		doneCh:  make(chan struct{}),
	}
}

// Start subscribes and begins consuming in a background goroutine. The
// loop exits when ctx is cancelled or the subscription closes.
func (pc *PubSubConsumer) Start(ctx context.Context) error {
	events, err := pc.sub.SubscribePattern(ctx, pc.pattern)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", pc.pattern, err)
	}

	l := pkglog.L()
	l.Info().Str("pattern", pc.pattern).Msg("relation consumer started")

	go pc.consumeLoop(ctx, events)

	return nil
}

func (pc *PubSubConsumer) consumeLoop(ctx context.Context, events <-chan *pubsub.Event) {
	l := pkglog.L()
	defer close(pc.doneCh)

	for {
		select {
		case <-ctx.Done():
			l.Info().Msg("relation consumer shutting down")
			return
		case event, ok := <-events:
			if !ok {
				l.Info().Msg("relation consumer subscription closed")
				return
			}
			pc.processEvent(context.WithoutCancel(ctx), event)
		}
	}
}

func (pc *PubSubConsumer) processEvent(ctx context.Context, event *pubsub.Event) {
	l := pkglog.L()

	var payload pubsub.RelationPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		l.Error().Err(err).Str("type", event.Type).Msg("failed to unmarshal relation event")
		return
	}

	if err := pc.handler.HandleRelationEvent(ctx, event, &payload); err != nil {
		l.Error().Err(err).
			Str(pkglog.FieldRelation, payload.Relation).
			Str(pkglog.FieldTargetID, payload.ObjectID).
			Msg("failed to handle relation event")
	}
}

// Close waits for the consume loop to exit. Cancel the context passed to
// Start first.
func (pc *PubSubConsumer) Close() error {
	<-pc.doneCh
	return nil
}

// TouchRecorder marks the object of every favorite event as touched so the
// reconciler revisits it.
type TouchRecorder struct {
	store store.TouchStore
}

// NewTouchRecorder creates a handler backed by the touch store.
func NewTouchRecorder(s store.TouchStore) *TouchRecorder {
	return &TouchRecorder{store: s}
}

// HandleRelationEvent records the touch. Follow events carry no projection
// and are ignored.
func (h *TouchRecorder) HandleRelationEvent(ctx context.Context, event *pubsub.Event, payload *pubsub.RelationPayload) error {
	if payload.Relation != "favorite" || payload.ObjectID == "" {
		return nil
	}
	return h.store.RecordTouch(ctx, payload.ObjectID)
}

var (
	_ RelationEventConsumer = (*PubSubConsumer)(nil)
	_ RelationEventHandler  = (*TouchRecorder)(nil)
)
