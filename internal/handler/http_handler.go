package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/weiawesome/wes-io-conduit/internal/domain"
	"github.com/weiawesome/wes-io-conduit/internal/service"
	"github.com/weiawesome/wes-io-conduit/pkg/log"
	"github.com/weiawesome/wes-io-conduit/pkg/middleware"
	"github.com/weiawesome/wes-io-conduit/pkg/response"
)

// Handler handles HTTP requests for the conduit API.
type Handler struct {
	userService    service.UserService
	profileService service.ProfileService
	articleService service.ArticleService
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler creates a new HTTP handler.
func NewHandler(
	userService service.UserService,
	profileService service.ProfileService,
	articleService service.ArticleService,
	authMiddleware *middleware.AuthMiddleware,
) *Handler {
	return &Handler{
		userService:    userService,
		profileService: profileService,
		articleService: articleService,
		authMiddleware: authMiddleware,
	}
}

// RegisterRoutes registers all routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	requireAuth := h.authMiddleware.RequireAuth()
	optionalAuth := h.authMiddleware.OptionalAuth()

	r.GET("/health", h.Health)

	api := r.Group("/api")
	{
		// Public routes
		api.POST("/users", h.Register)
		api.POST("/users/login", h.Login)
		api.GET("/tags", h.ListTags)

		// Current user
		user := api.Group("/user")
		user.Use(requireAuth)
		{
			user.GET("", h.GetCurrentUser)
			user.PUT("", h.UpdateUser)
			user.PUT("/image", h.UploadImage)
		}

		profiles := api.Group("/profiles")
		{
			profiles.GET("/:username", optionalAuth, h.GetProfile)
			profiles.POST("/:username/follow", requireAuth, h.Follow)
			profiles.DELETE("/:username/follow", requireAuth, h.Unfollow)
		}

		articles := api.Group("/articles")
		{
			articles.POST("", requireAuth, h.CreateArticle)
			articles.GET("/:slug", optionalAuth, h.GetArticle)
			articles.PUT("/:slug", requireAuth, h.UpdateArticle)
			articles.DELETE("/:slug", requireAuth, h.DeleteArticle)
			articles.POST("/:slug/favorite", requireAuth, h.Favorite)
			articles.DELETE("/:slug/favorite", requireAuth, h.Unfavorite)
		}
	}
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	response.Success(c, gin.H{"status": "ok"})
}

// writeError maps service error kinds onto the response envelope.
func writeError(c *gin.Context, err error, msg string) {
	var verr *domain.ValidationError
	var aerr *domain.AuthError

	switch {
	case errors.As(err, &verr):
		response.ValidationFailed(c, verr.Fields)
	case errors.As(err, &aerr):
		response.Unauthorized(c, authCode(aerr.Reason), aerr.Error())
	case errors.Is(err, domain.ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		response.Forbidden(c, "you are not allowed to modify this resource")
	default:
		l := log.Ctx(c.Request.Context())
		l.Error().Err(err).Msg(msg)
		response.InternalError(c, msg)
	}
}

func authCode(reason domain.AuthReason) string {
	switch reason {
	case domain.TokenExpired:
		return middleware.CodeTokenExpired
	case domain.CredentialsMissing:
		return middleware.CodeCredentialsMissing
	case domain.CredentialsInvalid:
		return "CREDENTIALS_INVALID"
	default:
		return middleware.CodeTokenInvalid
	}
}

func bindJSON(c *gin.Context, req interface{}, what string) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		l := log.Ctx(c.Request.Context())
		l.Warn().Err(err).Msg("invalid " + what + " request")
		response.BadRequest(c, err.Error())
		return false
	}
	return true
}
