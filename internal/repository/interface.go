package repository

import (
	"context"
	"errors"

	"github.com/weiawesome/wes-io-conduit/internal/domain"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrEmailExists     = errors.New("email already exists")
	ErrUsernameExists  = errors.New("username already exists")
	ErrArticleNotFound = errors.New("article not found")
	ErrSlugExists      = errors.New("slug already exists")
	ErrUnknownRelation = errors.New("unknown relation kind")
)

// UserRepository persists identity records.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

// ArticleRepository persists content records.
type ArticleRepository interface {
	Create(ctx context.Context, article *domain.Article) error
	GetByID(ctx context.Context, id string) (*domain.Article, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Article, error)
	Update(ctx context.Context, article *domain.Article) error
	Delete(ctx context.Context, id string) error
	SetFavoritesCount(ctx context.Context, id string, count int64) error
	ListTags(ctx context.Context) ([]string, error)
}

// RelationGraph stores the favorite and follow edge sets. Add and Remove are
// idempotent; Exists is answered from the pair index.
type RelationGraph interface {
	Add(ctx context.Context, kind domain.RelationKind, subjectID, objectID string) error
	Remove(ctx context.Context, kind domain.RelationKind, subjectID, objectID string) error
	Exists(ctx context.Context, kind domain.RelationKind, subjectID, objectID string) (bool, error)
	// CountSubjects returns how many subjects hold an edge to objectID.
	CountSubjects(ctx context.Context, kind domain.RelationKind, objectID string) (int64, error)
}
