package service

import (
	"context"

	"github.com/weiawesome/wes-io-conduit/internal/domain"
)

// UserService defines the interface for account business logic.
type UserService interface {
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.AuthUser, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthUser, error)
	GetCurrentUser(ctx context.Context, userID string) (*domain.AuthUser, error)
	UpdateUser(ctx context.Context, userID string, req *domain.UpdateUserRequest) (*domain.AuthUser, error)
	// UploadImage stores a new profile image and points the user's image at it.
	UploadImage(ctx context.Context, userID string, upload *domain.ImageUpload) (*domain.AuthUser, error)
}

// ProfileService defines the interface for public profiles and follows.
// An empty viewerID means an anonymous viewer.
type ProfileService interface {
	GetProfile(ctx context.Context, viewerID, username string) (*domain.Profile, error)
	Follow(ctx context.Context, viewerID, username string) (*domain.Profile, error)
	Unfollow(ctx context.Context, viewerID, username string) (*domain.Profile, error)
}

// ArticleService defines the interface for articles and favorites.
type ArticleService interface {
	CreateArticle(ctx context.Context, authorID string, req *domain.CreateArticleRequest) (*domain.ArticleView, error)
	GetArticle(ctx context.Context, viewerID, slug string) (*domain.ArticleView, error)
	UpdateArticle(ctx context.Context, userID, slug string, req *domain.UpdateArticleRequest) (*domain.ArticleView, error)
	DeleteArticle(ctx context.Context, userID, slug string) error
	// Favorite and Unfavorite return the article with its count already
	// recomputed.
	Favorite(ctx context.Context, userID, slug string) (*domain.ArticleView, error)
	Unfavorite(ctx context.Context, userID, slug string) (*domain.ArticleView, error)
	ListTags(ctx context.Context) ([]string, error)
}

// TokenIssuer signs identity tokens.
type TokenIssuer interface {
	Issue(userID, username string) (string, error)
}

// PasswordHasher sets and checks user passwords.
type PasswordHasher interface {
	SetPassword(u *domain.User, plaintext string) error
	VerifyPassword(u *domain.User, plaintext string) bool
}
