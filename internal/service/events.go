package service

import (
	"context"

	"github.com/weiawesome/wes-io-conduit/internal/domain"
	"github.com/weiawesome/wes-io-conduit/pkg/log"
	"github.com/weiawesome/wes-io-conduit/pkg/pubsub"
)

// relationEvents publishes relation changes. Publishing never fails the
// caller; errors are logged.
type relationEvents struct {
	publisher pubsub.Publisher
}

func (e relationEvents) publish(ctx context.Context, kind domain.RelationKind, added bool, subjectID, objectID string) {
	if e.publisher == nil {
		return
	}
	l := log.Ctx(ctx)

	eventType := pubsub.EventRelationRemoved
	if added {
		eventType = pubsub.EventRelationAdded
	}

	var channel string
	switch kind {
	case domain.RelationFavorite:
		channel = pubsub.FavoriteChannel(objectID)
	case domain.RelationFollow:
		channel = pubsub.FollowChannel(objectID)
	default:
		return
	}

	event, err := pubsub.NewEvent(eventType, objectID, pubsub.RelationPayload{
		Relation:  string(kind),
		SubjectID: subjectID,
		ObjectID:  objectID,
	})
	if err != nil {
		l.Warn().Err(err).Msg("failed to build relation event")
		return
	}
	if err := e.publisher.Publish(ctx, channel, event); err != nil {
		l.Warn().Err(err).
			Str(log.FieldRelation, string(kind)).
			Str(log.FieldTargetID, objectID).
			Msg("failed to publish relation event")
	}
}
