package api

import (
	"errors"
	"fmt"
	"net/http"

	"fitcoach/coach-app/internal/domain"
	"fitcoach/coach-app/internal/service"

	"github.com/gin-gonic/gin"
)

// UserHandler exposes the user surface: listing, supervision detail,
// deletion, and profile pictures.
type UserHandler struct {
	userService service.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

type PictureUploadURLRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

type PictureUploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
}

type SetPictureRequest struct {
	PictureURL string `json:"pictureUrl" binding:"required"`
}

// ListUsers godoc
// @Summary List users by role
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param role query string true "Role to filter by (pt or trainee)"
// @Success 200 {array} UserResponse
// @Router /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	role := domain.Role(c.Query("role"))
	if role != domain.RolePT && role != domain.RoleTrainee {
		abortWithError(c, http.StatusBadRequest, "Query parameter 'role' must be pt or trainee")
		return
	}

	users, err := h.userService.ListByRole(c.Request.Context(), role)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve users")
		return
	}

	resp := make([]UserResponse, 0, len(users))
	for i := range users {
		resp = append(resp, MapUserToResponse(&users[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// GetUser godoc
// @Summary Get a user with their resolved supervision relationship
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} service.UserWithSupervision
// @Failure 404 {object} gin.H "User not found"
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.userService.GetWithSupervision(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to retrieve user")
		}
		return
	}
	c.JSON(http.StatusOK, result)
}

// DeleteUser godoc
// @Summary Delete the authenticated user's account
// @Description Cascades: removes assignments, authored templates, and supervision back-references.
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} gin.H
// @Failure 403 {object} gin.H "Can only delete own account"
// @Failure 404 {object} gin.H "User not found"
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	caller, err := callerID(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify caller from token")
		return
	}
	if caller != id {
		abortWithError(c, http.StatusForbidden, "You can only delete your own account")
		return
	}

	if err := h.userService.DeleteUser(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrCascadeIncomplete):
			abortWithError(c, http.StatusInternalServerError, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to delete user")
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"deletedUserId": id.Hex()})
}

// PictureUploadURL godoc
// @Summary Get a presigned URL for uploading a profile picture
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} PictureUploadURLResponse
// @Router /profile/picture-upload-url [post]
func (h *UserHandler) PictureUploadURL(c *gin.Context) {
	var req PictureUploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	caller, err := callerID(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify caller from token")
		return
	}

	uploadURL, objectKey, err := h.userService.ProfilePictureUploadURL(c.Request.Context(), caller, req.ContentType)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to generate upload URL")
		}
		return
	}
	c.JSON(http.StatusOK, PictureUploadURLResponse{UploadURL: uploadURL, ObjectKey: objectKey})
}

// SetPicture godoc
// @Summary Store the profile picture URL after a successful upload
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} gin.H
// @Router /profile/picture [put]
func (h *UserHandler) SetPicture(c *gin.Context) {
	var req SetPictureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	caller, err := callerID(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify caller from token")
		return
	}

	if err := h.userService.SetProfilePicture(c.Request.Context(), caller, req.PictureURL); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to store profile picture")
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"pictureUrl": req.PictureURL})
}
