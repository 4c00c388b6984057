package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/weiawesome/wes-io-conduit/internal/domain"
	"github.com/weiawesome/wes-io-conduit/pkg/middleware"
	"github.com/weiawesome/wes-io-conduit/pkg/response"
)

// Register handles user registration.
func (h *Handler) Register(c *gin.Context) {
	var body domain.RegisterBody
	if !bindJSON(c, &body, "register") {
		return
	}

	result, err := h.userService.Register(c.Request.Context(), &body.User)
	if err != nil {
		writeError(c, err, "failed to register user")
		return
	}

	response.Created(c, gin.H{"user": result})
}

// Login handles user login.
func (h *Handler) Login(c *gin.Context) {
	var body domain.LoginBody
	if !bindJSON(c, &body, "login") {
		return
	}

	result, err := h.userService.Login(c.Request.Context(), &body.User)
	if err != nil {
		writeError(c, err, "failed to login")
		return
	}

	response.Success(c, gin.H{"user": result})
}

// GetCurrentUser returns the authenticated user.
func (h *Handler) GetCurrentUser(c *gin.Context) {
	result, err := h.userService.GetCurrentUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		writeError(c, err, "failed to get user")
		return
	}

	response.Success(c, gin.H{"user": result})
}

// UpdateUser updates the authenticated user.
func (h *Handler) UpdateUser(c *gin.Context) {
	var body domain.UpdateUserBody
	if !bindJSON(c, &body, "update user") {
		return
	}

	result, err := h.userService.UpdateUser(c.Request.Context(), middleware.GetUserID(c), &body.User)
	if err != nil {
		writeError(c, err, "failed to update user")
		return
	}

	response.Success(c, gin.H{"user": result})
}

// UploadImage accepts a multipart "image" file and makes it the profile image.
func (h *Handler) UploadImage(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		response.ValidationFailed(c, map[string]string{"image": domain.MsgBlank})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		writeError(c, err, "failed to read image")
		return
	}
	defer file.Close()

	result, err := h.userService.UploadImage(c.Request.Context(), middleware.GetUserID(c), &domain.ImageUpload{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Content:     file,
	})
	if err != nil {
		writeError(c, err, "failed to upload image")
		return
	}

	response.Success(c, gin.H{"user": result})
}

// GetProfile returns a public profile.
func (h *Handler) GetProfile(c *gin.Context) {
	result, err := h.profileService.GetProfile(c.Request.Context(), middleware.GetUserID(c), c.Param("username"))
	if err != nil {
		writeError(c, err, "failed to get profile")
		return
	}

	response.Success(c, gin.H{"profile": result})
}

// Follow follows a user.
func (h *Handler) Follow(c *gin.Context) {
	result, err := h.profileService.Follow(c.Request.Context(), middleware.GetUserID(c), c.Param("username"))
	if err != nil {
		writeError(c, err, "failed to follow user")
		return
	}

	response.Success(c, gin.H{"profile": result})
}

// Unfollow unfollows a user.
func (h *Handler) Unfollow(c *gin.Context) {
	result, err := h.profileService.Unfollow(c.Request.Context(), middleware.GetUserID(c), c.Param("username"))
	if err != nil {
		writeError(c, err, "failed to unfollow user")
		return
	}

	response.Success(c, gin.H{"profile": result})
}
