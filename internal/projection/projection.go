// Package projection keeps derived counters in step with the relation graph.
package projection

import (
	"context"
	"fmt"

	"github.com/weiawesome/wes-io-conduit/internal/domain"
	"github.com/weiawesome/wes-io-conduit/internal/repository"
)

// Projection recomputes an article's favorite count from the favorites
// relation and persists it on the article.
type Projection interface {
	Recompute(ctx context.Context, articleID string) (int64, error)
}

// CountProjection derives the count with a COUNT over the favorites edge set.
type CountProjection struct {
	graph    repository.RelationGraph
	articles repository.ArticleRepository
}

// NewCountProjection creates a new count projection.
func NewCountProjection(graph repository.RelationGraph, articles repository.ArticleRepository) *CountProjection {
	return &CountProjection{graph: graph, articles: articles}
}

// Recompute counts the favorite edges of articleID and stores the result.
func (p *CountProjection) Recompute(ctx context.Context, articleID string) (int64, error) {
	count, err := p.graph.CountSubjects(ctx, domain.RelationFavorite, articleID)
	if err != nil {
		return 0, fmt.Errorf("count favorites: %w", err)
	}
	if err := p.articles.SetFavoritesCount(ctx, articleID, count); err != nil {
		return 0, fmt.Errorf("store favorites count: %w", err)
	}
	return count, nil
}

var _ Projection = (*CountProjection)(nil)
