package service

import (
	"context"
	"errors"

	"github.com/weiawesome/wes-io-conduit/internal/audit"
	"github.com/weiawesome/wes-io-conduit/internal/domain"
	"github.com/weiawesome/wes-io-conduit/internal/repository"
	"github.com/weiawesome/wes-io-conduit/pkg/log"
	"github.com/weiawesome/wes-io-conduit/pkg/pubsub"
)

// profileServiceImpl implements ProfileService interface.
type profileServiceImpl struct {
	views  viewBuilder
	graph  repository.RelationGraph
	events relationEvents
}

// NewProfileService creates a new profile service. publisher may be nil.
func NewProfileService(users *UserLookup, graph repository.RelationGraph, publisher pubsub.Publisher) ProfileService {
	return &profileServiceImpl{
		views:  viewBuilder{users: users, graph: graph},
		graph:  graph,
		events: relationEvents{publisher: publisher},
	}
}

// GetProfile returns the public profile of username as seen by viewerID.
func (s *profileServiceImpl) GetProfile(ctx context.Context, viewerID, username string) (*domain.Profile, error) {
	viewer, err := s.views.resolveViewer(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	target, err := s.target(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.views.profile(ctx, viewer, target)
}

// Follow adds a follow edge from the viewer to username. Following an
// already followed user is a no-op.
func (s *profileServiceImpl) Follow(ctx context.Context, viewerID, username string) (*domain.Profile, error) {
	return s.mutate(ctx, viewerID, username, true)
}

// Unfollow removes the follow edge if present.
func (s *profileServiceImpl) Unfollow(ctx context.Context, viewerID, username string) (*domain.Profile, error) {
	return s.mutate(ctx, viewerID, username, false)
}

func (s *profileServiceImpl) mutate(ctx context.Context, viewerID, username string, follow bool) (*domain.Profile, error) {
	l := log.Ctx(ctx)

	viewer, err := s.views.requireViewer(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	target, err := s.target(ctx, username)
	if err != nil {
		return nil, err
	}

	if follow {
		if target.ID == viewer.ID {
			return nil, domain.NewValidationError("profile", "cannot follow yourself")
		}
		err = s.graph.Add(ctx, domain.RelationFollow, viewer.ID, target.ID)
	} else {
		err = s.graph.Remove(ctx, domain.RelationFollow, viewer.ID, target.ID)
	}
	if err != nil {
		l.Error().Err(err).Str(log.FieldTargetID, target.ID).Bool("follow", follow).Msg("failed to update follow relation")
		return nil, err
	}

	s.events.publish(ctx, domain.RelationFollow, follow, viewer.ID, target.ID)
	if follow {
		audit.LogWithTarget(ctx, audit.ActionFollow, viewer.ID, target.ID, "user followed")
	} else {
		audit.LogWithTarget(ctx, audit.ActionUnfollow, viewer.ID, target.ID, "user unfollowed")
	}

	return s.views.profile(ctx, viewer, target)
}

func (s *profileServiceImpl) target(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.views.users.ByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, domain.NotFound("profile")
		}
		return nil, err
	}
	return user, nil
}
