package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mkowalczyk-dev/task-tracker-api/internal/dto"
	apperrors "github.com/mkowalczyk-dev/task-tracker-api/internal/errors"
	"github.com/mkowalczyk-dev/task-tracker-api/internal/middleware"
	"github.com/mkowalczyk-dev/task-tracker-api/internal/services"
	"github.com/mkowalczyk-dev/task-tracker-api/internal/utils"
)

// UserHandler coordinates user-management HTTP handlers.
type UserHandler struct {
	userService *services.UserService
	log         *zap.SugaredLogger
	production  bool
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *services.UserService, log *zap.SugaredLogger, production bool) *UserHandler {
	return &UserHandler{
		userService: userService,
		log:         log,
		production:  production,
	}
}

// ListUsers returns users matching an optional email search. Admin only.
func (h *UserHandler) ListUsers(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	search := c.Query("search")

	users, total, err := h.userService.ListUsers(search, params.Offset, params.Limit)
	if err != nil {
		respondError(c, h.log, h.production, "Failed to list users", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "OK",
		"users":      dto.ToUserDTOs(users),
		"pagination": utils.NewPaginationResponse(params, total),
	})
}

// UpdateUser applies a patch to a user profile. Self or admin.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	targetID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apperrors.BadRequest(c, "Invalid user ID")
		return
	}

	actorID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}
	actorRole, _ := middleware.GetUserRole(c)

	if !middleware.CanManageUser(actorID, actorRole, targetID) {
		apperrors.Forbidden(c, "You can only update your own account")
		return
	}

	type UpdateUserRequest struct {
		Email    *string `json:"email"`
		Password *string `json:"password"`
		Role     *string `json:"role"`
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.userService.UpdateUser(targetID, actorRole, services.UpdateUserInput{
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		respondError(c, h.log, h.production, "Failed to update user", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User updated successfully",
		"user":    dto.ToUserDTO(*user),
	})
}

// DeleteUser removes a user account. Admin only; self-deletion is rejected.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	targetID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apperrors.BadRequest(c, "Invalid user ID")
		return
	}

	actorID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	if err := h.userService.DeleteUser(actorID, targetID); err != nil {
		respondError(c, h.log, h.production, "Failed to delete user", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User deleted successfully",
	})
}
