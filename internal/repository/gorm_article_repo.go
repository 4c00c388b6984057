package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/weiawesome/wes-io-conduit/internal/domain"
	"github.com/weiawesome/wes-io-conduit/pkg/database"
)

// GormArticleRepository implements ArticleRepository using GORM.
type GormArticleRepository struct {
	db *gorm.DB
}

// NewGormArticleRepository creates a new GORM-based article repository.
func NewGormArticleRepository(db *gorm.DB) *GormArticleRepository {
	return &GormArticleRepository{db: db}
}

// Create inserts the article and its tag index rows in one transaction.
func (r *GormArticleRepository) Create(ctx context.Context, article *domain.Article) error {
	if article.ID == "" {
		article.ID = uuid.New().String()
	}
	if article.TagList == nil {
		article.TagList = []string{}
	}

	model := domain.ArticleToModel(article)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		tags := tagIndexRows(article.ID, article.TagList)
		if len(tags) == 0 {
			return nil
		}
		return tx.Create(&tags).Error
	})
	if err != nil {
		if database.ViolatesColumn(err, "articles", "slug") {
			return ErrSlugExists
		}
		return err
	}

	article.CreatedAt = model.CreatedAt
	article.UpdatedAt = model.UpdatedAt
	return nil
}

// tagIndexRows builds one index row per distinct trimmed, non-blank tag,
// at the position of its first occurrence. The article's tagList is stored
// as sent, repeats included.
func tagIndexRows(articleID string, tagList []string) []domain.ArticleTagModel {
	rows := make([]domain.ArticleTagModel, 0, len(tagList))
	seen := make(map[string]struct{}, len(tagList))
	for i, tag := range tagList {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		rows = append(rows, domain.ArticleTagModel{ArticleID: articleID, Tag: tag, Position: i})
	}
	return rows
}

// GetByID retrieves an article by ID.
func (r *GormArticleRepository) GetByID(ctx context.Context, id string) (*domain.Article, error) {
	return r.first(ctx, "id = ?", id)
}

// GetBySlug retrieves an article by slug.
func (r *GormArticleRepository) GetBySlug(ctx context.Context, slug string) (*domain.Article, error) {
	return r.first(ctx, "slug = ?", slug)
}

func (r *GormArticleRepository) first(ctx context.Context, query string, arg string) (*domain.Article, error) {
	var model domain.ArticleModel
	if err := r.db.WithContext(ctx).Where(query, arg).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Update writes title, description and body. Slug, author and tags are
// fixed at creation.
func (r *GormArticleRepository) Update(ctx context.Context, article *domain.Article) error {
	result := r.db.WithContext(ctx).Model(&domain.ArticleModel{}).
		Where("id = ?", article.ID).
		Updates(map[string]interface{}{
			"title":       article.Title,
			"description": article.Description,
			"body":        article.Body,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrArticleNotFound
	}

	var updated domain.ArticleModel
	if err := r.db.WithContext(ctx).Select("updated_at").First(&updated, "id = ?", article.ID).Error; err == nil {
		article.UpdatedAt = updated.UpdatedAt
	}
	return nil
}

// Delete removes the article together with its tags and favorite edges.
func (r *GormArticleRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("article_id = ?", id).Delete(&domain.ArticleTagModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("article_id = ?", id).Delete(&domain.FavoriteModel{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&domain.ArticleModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrArticleNotFound
		}
		return nil
	})
}

// SetFavoritesCount overwrites the projected favorite count without
// touching updated_at.
func (r *GormArticleRepository) SetFavoritesCount(ctx context.Context, id string, count int64) error {
	return r.db.WithContext(ctx).Model(&domain.ArticleModel{}).
		Where("id = ?", id).
		UpdateColumn("favorites_count", count).Error
}

// ListTags returns every distinct tag in use, sorted.
func (r *GormArticleRepository) ListTags(ctx context.Context) ([]string, error) {
	tags := []string{}
	err := r.db.WithContext(ctx).Model(&domain.ArticleTagModel{}).
		Distinct("tag").
		Order("tag").
		Pluck("tag", &tags).Error
	if err != nil {
		return nil, err
	}
	return tags, nil
}

var _ ArticleRepository = (*GormArticleRepository)(nil)
