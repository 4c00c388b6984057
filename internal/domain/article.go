package domain

import (
	"time"

	"github.com/weiawesome/wes-io-conduit/pkg/database"
)

// ArticleModel is the GORM model for the articles table.
type ArticleModel struct {
	ID             string               `gorm:"type:varchar(36);primaryKey"`
	Slug           string               `gorm:"type:varchar(255);uniqueIndex;not null"`
	Title          string               `gorm:"type:varchar(255);not null"`
	Description    string               `gorm:"type:text"`
	Body           string               `gorm:"type:text"`
	TagList        database.StringArray `gorm:"type:text;not null"`
	AuthorID       string               `gorm:"type:varchar(36);index;not null"`
	FavoritesCount int64                `gorm:"not null;default:0"`
	CreatedAt      time.Time            `gorm:"autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"autoUpdateTime"`
}

// TableName specifies the table name for ArticleModel.
func (ArticleModel) TableName() string {
	return "articles"
}

// ArticleTagModel indexes tags for listing. Position keeps the author's order.
type ArticleTagModel struct {
	ArticleID string `gorm:"type:varchar(36);primaryKey"`
	Tag       string `gorm:"type:varchar(128);primaryKey;index"`
	Position  int    `gorm:"not null"`
}

// TableName specifies the table name for ArticleTagModel.
func (ArticleTagModel) TableName() string {
	return "article_tags"
}

// ToDomain converts ArticleModel to domain Article.
func (m *ArticleModel) ToDomain() *Article {
	tags := []string(m.TagList)
	if tags == nil {
		tags = []string{}
	}
	return &Article{
		ID:             m.ID,
		Slug:           m.Slug,
		Title:          m.Title,
		Description:    m.Description,
		Body:           m.Body,
		TagList:        tags,
		AuthorID:       m.AuthorID,
		FavoritesCount: m.FavoritesCount,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// ArticleToModel converts domain Article to ArticleModel.
func ArticleToModel(a *Article) *ArticleModel {
	return &ArticleModel{
		ID:             a.ID,
		Slug:           a.Slug,
		Title:          a.Title,
		Description:    a.Description,
		Body:           a.Body,
		TagList:        database.StringArray(a.TagList),
		AuthorID:       a.AuthorID,
		FavoritesCount: a.FavoritesCount,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

// Article is a content record. Slug and AuthorID never change after the
// first save; FavoritesCount is a projection of the favorites relation.
type Article struct {
	ID             string
	Slug           string
	Title          string
	Description    string
	Body           string
	TagList        []string
	AuthorID       string
	FavoritesCount int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CreateArticleRequest represents an article creation request.
type CreateArticleRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Body        string   `json:"body"`
	TagList     []string `json:"tagList"`
}

// UpdateArticleRequest carries the fields to change; nil means unchanged.
// The slug is deliberately absent.
type UpdateArticleRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Body        *string `json:"body"`
}

// CreateArticleBody is the JSON body of article creation, {"article": {...}}.
type CreateArticleBody struct {
	Article CreateArticleRequest `json:"article"`
}

// UpdateArticleBody is the JSON body of an article update, {"article": {...}}.
type UpdateArticleBody struct {
	Article UpdateArticleRequest `json:"article"`
}

// ArticleView is an article as rendered for a viewer.
type ArticleView struct {
	Slug           string    `json:"slug"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Body           string    `json:"body"`
	TagList        []string  `json:"tagList"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	Favorited      bool      `json:"favorited"`
	FavoritesCount int64     `json:"favoritesCount"`
	Author         Profile   `json:"author"`
}
