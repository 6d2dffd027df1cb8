package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/mkowalczyk-dev/task-tracker-api/internal/errors"
	"github.com/mkowalczyk-dev/task-tracker-api/internal/middleware"
	"github.com/mkowalczyk-dev/task-tracker-api/internal/services"
)

// respondError classifies known error shapes and delegates everything else
// to a sanitized 500, logging full context either way.
func respondError(c *gin.Context, log *zap.SugaredLogger, production bool, message string, err error) {
	actor := "anonymous"
	if userID, ok := middleware.GetUserID(c); ok {
		actor = "user:" + strconv.FormatUint(userID, 10)
	}
	log.Errorw(message,
		"error", err,
		"actor", actor,
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	)

	var validationErr *apperrors.ValidationError
	switch {
	case errors.As(err, &validationErr):
		apperrors.ValidationFailed(c, validationErr.Fields)
	case errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrDocumentNotFound),
		errors.Is(err, services.ErrUserNotFound):
		apperrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrDuplicateTask),
		errors.Is(err, services.ErrEmailTaken):
		apperrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrInvalidToken):
		apperrors.Unauthorized(c, err.Error())
	case errors.Is(err, services.ErrDocumentLimit),
		errors.Is(err, services.ErrSelfDelete),
		errors.Is(err, services.ErrNothingToDo):
		apperrors.BadRequest(c, err.Error())
	default:
		apperrors.Internal(c, production, message, err)
	}
}
