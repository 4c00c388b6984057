package service

import (
	"context"
	"errors"
	"strings"

	"github.com/weiawesome/wes-io-conduit/internal/audit"
	"github.com/weiawesome/wes-io-conduit/internal/domain"
	"github.com/weiawesome/wes-io-conduit/internal/projection"
	"github.com/weiawesome/wes-io-conduit/internal/repository"
	"github.com/weiawesome/wes-io-conduit/internal/slug"
	"github.com/weiawesome/wes-io-conduit/pkg/log"
	"github.com/weiawesome/wes-io-conduit/pkg/pubsub"
)

// articleServiceImpl implements ArticleService interface.
type articleServiceImpl struct {
	repo       repository.ArticleRepository
	graph      repository.RelationGraph
	projection projection.Projection
	slugs      slug.Generator
	views      viewBuilder
	events     relationEvents
}

// NewArticleService creates a new article service. publisher may be nil.
func NewArticleService(
	repo repository.ArticleRepository,
	graph repository.RelationGraph,
	proj projection.Projection,
	slugs slug.Generator,
	users *UserLookup,
	publisher pubsub.Publisher,
) ArticleService {
	return &articleServiceImpl{
		repo:       repo,
		graph:      graph,
		projection: proj,
		slugs:      slugs,
		views:      viewBuilder{users: users, graph: graph},
		events:     relationEvents{publisher: publisher},
	}
}

// CreateArticle assigns the slug once and persists the article with its tags.
func (s *articleServiceImpl) CreateArticle(ctx context.Context, authorID string, req *domain.CreateArticleRequest) (*domain.ArticleView, error) {
	l := log.Ctx(ctx)

	author, err := s.views.requireViewer(ctx, authorID)
	if err != nil {
		return nil, err
	}

	verr := &domain.ValidationError{}
	requireField(verr, "title", req.Title)
	requireField(verr, "description", req.Description)
	requireField(verr, "body", req.Body)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	articleSlug, err := s.slugs.Generate(req.Title)
	if err != nil {
		l.Error().Err(err).Msg("failed to generate slug")
		return nil, err
	}

	article := &domain.Article{
		Slug:        articleSlug,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Body:        req.Body,
		TagList:     append([]string(nil), req.TagList...),
		AuthorID:    author.ID,
	}
	if err := s.repo.Create(ctx, article); err != nil {
		if errors.Is(err, repository.ErrSlugExists) {
			return nil, domain.NewValidationError("slug", domain.MsgTaken)
		}
		l.Error().Err(err).Msg("failed to create article")
		return nil, err
	}

	audit.LogWithTarget(ctx, audit.ActionArticleCreate, author.ID, article.ID, "article created")

	return s.views.article(ctx, author, article)
}

// GetArticle returns the article as seen by viewerID, which may be empty.
func (s *articleServiceImpl) GetArticle(ctx context.Context, viewerID, articleSlug string) (*domain.ArticleView, error) {
	viewer, err := s.views.resolveViewer(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	article, err := s.bySlug(ctx, articleSlug)
	if err != nil {
		return nil, err
	}
	return s.views.article(ctx, viewer, article)
}

// UpdateArticle changes title, description or body. The slug stays as
// assigned at creation.
func (s *articleServiceImpl) UpdateArticle(ctx context.Context, userID, articleSlug string, req *domain.UpdateArticleRequest) (*domain.ArticleView, error) {
	l := log.Ctx(ctx)

	viewer, article, err := s.owned(ctx, userID, articleSlug)
	if err != nil {
		return nil, err
	}

	verr := &domain.ValidationError{}
	if req.Title != nil {
		requireField(verr, "title", *req.Title)
		article.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		requireField(verr, "description", *req.Description)
		article.Description = *req.Description
	}
	if req.Body != nil {
		requireField(verr, "body", *req.Body)
		article.Body = *req.Body
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, article); err != nil {
		if errors.Is(err, repository.ErrArticleNotFound) {
			return nil, domain.NotFound("article")
		}
		l.Error().Err(err).Str(log.FieldArticleSlug, articleSlug).Msg("failed to update article")
		return nil, err
	}

	audit.LogWithTarget(ctx, audit.ActionArticleUpdate, viewer.ID, article.ID, "article updated")

	return s.views.article(ctx, viewer, article)
}

// DeleteArticle removes the article, its tags and its favorite edges.
func (s *articleServiceImpl) DeleteArticle(ctx context.Context, userID, articleSlug string) error {
	l := log.Ctx(ctx)

	viewer, article, err := s.owned(ctx, userID, articleSlug)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, article.ID); err != nil {
		if errors.Is(err, repository.ErrArticleNotFound) {
			return domain.NotFound("article")
		}
		l.Error().Err(err).Str(log.FieldArticleSlug, articleSlug).Msg("failed to delete article")
		return err
	}

	audit.LogWithTarget(ctx, audit.ActionArticleDelete, viewer.ID, article.ID, "article deleted")
	return nil
}

// Favorite adds the favorite edge and recomputes the count before
// rendering.
func (s *articleServiceImpl) Favorite(ctx context.Context, userID, articleSlug string) (*domain.ArticleView, error) {
	return s.mutateFavorite(ctx, userID, articleSlug, true)
}

// Unfavorite removes the favorite edge and recomputes the count before
// rendering.
func (s *articleServiceImpl) Unfavorite(ctx context.Context, userID, articleSlug string) (*domain.ArticleView, error) {
	return s.mutateFavorite(ctx, userID, articleSlug, false)
}

func (s *articleServiceImpl) mutateFavorite(ctx context.Context, userID, articleSlug string, add bool) (*domain.ArticleView, error) {
	l := log.Ctx(ctx)

	viewer, err := s.views.requireViewer(ctx, userID)
	if err != nil {
		return nil, err
	}
	article, err := s.bySlug(ctx, articleSlug)
	if err != nil {
		return nil, err
	}

	if add {
		err = s.graph.Add(ctx, domain.RelationFavorite, viewer.ID, article.ID)
	} else {
		err = s.graph.Remove(ctx, domain.RelationFavorite, viewer.ID, article.ID)
	}
	if err != nil {
		l.Error().Err(err).Str(log.FieldArticleID, article.ID).Bool("favorite", add).Msg("failed to update favorite relation")
		return nil, err
	}

	// The event is published before the recompute so a failed recompute is
	// still revisited by the reconciler.
	s.events.publish(ctx, domain.RelationFavorite, add, viewer.ID, article.ID)

	count, err := s.projection.Recompute(ctx, article.ID)
	if err != nil {
		l.Error().Err(err).Str(log.FieldArticleID, article.ID).Msg("failed to recompute favorites count")
		return nil, err
	}
	article.FavoritesCount = count

	if add {
		audit.LogWithTarget(ctx, audit.ActionFavorite, viewer.ID, article.ID, "article favorited")
	} else {
		audit.LogWithTarget(ctx, audit.ActionUnfavorite, viewer.ID, article.ID, "article unfavorited")
	}

	return s.views.article(ctx, viewer, article)
}

// ListTags returns every tag in use.
func (s *articleServiceImpl) ListTags(ctx context.Context) ([]string, error) {
	return s.repo.ListTags(ctx)
}

func (s *articleServiceImpl) bySlug(ctx context.Context, articleSlug string) (*domain.Article, error) {
	article, err := s.repo.GetBySlug(ctx, articleSlug)
	if err != nil {
		if errors.Is(err, repository.ErrArticleNotFound) {
			return nil, domain.NotFound("article")
		}
		return nil, err
	}
	return article, nil
}

// owned loads the article and checks that userID authored it.
func (s *articleServiceImpl) owned(ctx context.Context, userID, articleSlug string) (*domain.User, *domain.Article, error) {
	viewer, err := s.views.requireViewer(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	article, err := s.bySlug(ctx, articleSlug)
	if err != nil {
		return nil, nil, err
	}
	if article.AuthorID != viewer.ID {
		return nil, nil, domain.ErrForbidden
	}
	return viewer, article, nil
}
