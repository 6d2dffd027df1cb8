package middleware

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mkowalczyk-dev/task-tracker-api/internal/constants"
	apperrors "github.com/mkowalczyk-dev/task-tracker-api/internal/errors"
	"github.com/mkowalczyk-dev/task-tracker-api/internal/models"
	"github.com/mkowalczyk-dev/task-tracker-api/internal/services"
)

// TaskCapability names the access level a route requires.
type TaskCapability int

const (
	// TaskCapabilityView allows the creator, the assignee and admins.
	TaskCapabilityView TaskCapability = iota
	// TaskCapabilityManage allows the creator and admins.
	TaskCapabilityManage
)

// canAccessTask is the single capability check for task routes, evaluated
// once per request against the actor's role and resource ownership.
func canAccessTask(task *models.Task, actorID uint64, actorRole models.UserRole, cap TaskCapability) bool {
	if actorRole == models.RoleAdmin || task.CreatedBy == actorID {
		return true
	}
	if cap == TaskCapabilityView && task.AssignedTo != nil && *task.AssignedTo == actorID {
		return true
	}
	return false
}

// RequireTaskAccess loads the task named by the :id parameter, evaluates the
// capability and stores the task in the context for the handler.
// Must run after RequireAuth.
func RequireTaskAccess(taskService *services.TaskService, cap TaskCapability, production bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			apperrors.BadRequest(c, "Invalid task ID")
			c.Abort()
			return
		}

		actorID, exists := GetUserID(c)
		if !exists {
			apperrors.Unauthorized(c, "")
			c.Abort()
			return
		}
		actorRole, _ := GetUserRole(c)

		task, err := taskService.GetTask(taskID)
		if err != nil {
			if errors.Is(err, services.ErrTaskNotFound) {
				apperrors.NotFound(c, "Task not found")
			} else {
				apperrors.Internal(c, production, "Failed to load task", err)
			}
			c.Abort()
			return
		}

		if !canAccessTask(task, actorID, actorRole, cap) {
			apperrors.Forbidden(c, "You do not have access to this task")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyTask, task)
		c.Next()
	}
}

// GetTask retrieves the task loaded by RequireTaskAccess.
func GetTask(c *gin.Context) (*models.Task, bool) {
	value, exists := c.Get(constants.ContextKeyTask)
	if !exists {
		return nil, false
	}
	task, ok := value.(*models.Task)
	return task, ok
}
