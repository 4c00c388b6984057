package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/weiawesome/wes-io-conduit/internal/domain"
	"github.com/weiawesome/wes-io-conduit/pkg/middleware"
	"github.com/weiawesome/wes-io-conduit/pkg/response"
)

// CreateArticle creates an article authored by the caller.
func (h *Handler) CreateArticle(c *gin.Context) {
	var body domain.CreateArticleBody
	if !bindJSON(c, &body, "create article") {
		return
	}

	result, err := h.articleService.CreateArticle(c.Request.Context(), middleware.GetUserID(c), &body.Article)
	if err != nil {
		writeError(c, err, "failed to create article")
		return
	}

	response.Created(c, gin.H{"article": result})
}

// GetArticle returns an article by slug.
func (h *Handler) GetArticle(c *gin.Context) {
	result, err := h.articleService.GetArticle(c.Request.Context(), middleware.GetUserID(c), c.Param("slug"))
	if err != nil {
		writeError(c, err, "failed to get article")
		return
	}

	response.Success(c, gin.H{"article": result})
}

// UpdateArticle updates an article owned by the caller.
func (h *Handler) UpdateArticle(c *gin.Context) {
	var body domain.UpdateArticleBody
	if !bindJSON(c, &body, "update article") {
		return
	}

	result, err := h.articleService.UpdateArticle(c.Request.Context(), middleware.GetUserID(c), c.Param("slug"), &body.Article)
	if err != nil {
		writeError(c, err, "failed to update article")
		return
	}

	response.Success(c, gin.H{"article": result})
}

// DeleteArticle deletes an article owned by the caller.
func (h *Handler) DeleteArticle(c *gin.Context) {
	if err := h.articleService.DeleteArticle(c.Request.Context(), middleware.GetUserID(c), c.Param("slug")); err != nil {
		writeError(c, err, "failed to delete article")
		return
	}

	response.NoContent(c)
}

// Favorite favorites an article.
func (h *Handler) Favorite(c *gin.Context) {
	result, err := h.articleService.Favorite(c.Request.Context(), middleware.GetUserID(c), c.Param("slug"))
	if err != nil {
		writeError(c, err, "failed to favorite article")
		return
	}

	response.Success(c, gin.H{"article": result})
}

// Unfavorite removes the caller's favorite.
func (h *Handler) Unfavorite(c *gin.Context) {
	result, err := h.articleService.Unfavorite(c.Request.Context(), middleware.GetUserID(c), c.Param("slug"))
	if err != nil {
		writeError(c, err, "failed to unfavorite article")
		return
	}

	response.Success(c, gin.H{"article": result})
}

// ListTags returns every tag in use.
func (h *Handler) ListTags(c *gin.Context) {
	tags, err := h.articleService.ListTags(c.Request.Context())
	if err != nil {
		writeError(c, err, "failed to list tags")
		return
	}

	response.Success(c, gin.H{"tags": tags})
}
