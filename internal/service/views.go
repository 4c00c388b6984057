package service

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/weiawesome/wes-io-conduit/internal/domain"
	"github.com/weiawesome/wes-io-conduit/internal/repository"
)

// viewBuilder renders records for a viewer. A nil viewer is anonymous and
// never touches the relation graph.
type viewBuilder struct {
	users *UserLookup
	graph repository.RelationGraph
}

// resolveViewer loads the authenticated user. A token whose subject no
// longer exists is treated as an invalid token.
func (b *viewBuilder) resolveViewer(ctx context.Context, viewerID string) (*domain.User, error) {
	if viewerID == "" {
		return nil, nil
	}
	user, err := b.users.ByID(ctx, viewerID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, err
	}
	return user, nil
}

// requireViewer is resolveViewer for operations that need a signed-in user.
func (b *viewBuilder) requireViewer(ctx context.Context, viewerID string) (*domain.User, error) {
	if viewerID == "" {
		return nil, domain.ErrCredentialsMissing
	}
	return b.resolveViewer(ctx, viewerID)
}

func (b *viewBuilder) isFollowing(ctx context.Context, viewer *domain.User, targetID string) (bool, error) {
	if viewer == nil {
		return false, nil
	}
	return b.graph.Exists(ctx, domain.RelationFollow, viewer.ID, targetID)
}

func (b *viewBuilder) profile(ctx context.Context, viewer, target *domain.User) (*domain.Profile, error) {
	following, err := b.isFollowing(ctx, viewer, target.ID)
	if err != nil {
		return nil, err
	}
	return toProfile(target, following), nil
}

// article assembles the view, loading the author and both relation flags
// concurrently.
func (b *viewBuilder) article(ctx context.Context, viewer *domain.User, article *domain.Article) (*domain.ArticleView, error) {
	var (
		author    *domain.User
		following bool
		favorited bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		author, err = b.users.ByID(gctx, article.AuthorID)
		if errors.Is(err, repository.ErrUserNotFound) {
			return domain.NotFound("author")
		}
		return err
	})
	if viewer != nil {
		g.Go(func() error {
			var err error
			following, err = b.isFollowing(gctx, viewer, article.AuthorID)
			return err
		})
		g.Go(func() error {
			var err error
			favorited, err = b.graph.Exists(gctx, domain.RelationFavorite, viewer.ID, article.ID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &domain.ArticleView{
		Slug:           article.Slug,
		Title:          article.Title,
		Description:    article.Description,
		Body:           article.Body,
		TagList:        article.TagList,
		CreatedAt:      article.CreatedAt,
		UpdatedAt:      article.UpdatedAt,
		Favorited:      favorited,
		FavoritesCount: article.FavoritesCount,
		Author:         *toProfile(author, following),
	}, nil
}

func toProfile(u *domain.User, following bool) *domain.Profile {
	return &domain.Profile{
		Username:  u.Username,
		Bio:       u.Bio,
		Image:     u.ImageOrDefault(),
		Following: following,
	}
}

func toAuthUser(u *domain.User, token string) *domain.AuthUser {
	return &domain.AuthUser{
		Email:    u.Email,
		Token:    token,
		Username: u.Username,
		Bio:      u.Bio,
		Image:    u.ImageOrDefault(),
	}
}
