package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mkowalczyk-dev/task-tracker-api/internal/constants"
)

// RequestLogger logs one structured record per request, tagged with a
// generated request ID and the actor when known.
func RequestLogger(log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := uuid.NewString()
		c.Set(constants.ContextKeyRequestID, requestID)

		c.Next()

		actor := "anonymous"
		if userID, ok := GetUserID(c); ok {
			actor = strconv.FormatUint(userID, 10)
		}

		log.Infow("request",
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"client_ip", c.ClientIP(),
			"actor", actor,
			"latency", time.Since(start).String(),
		)
	}
}
