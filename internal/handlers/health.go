package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Health returns a handler reporting process status and environment tag.
func Health(environment string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "OK",
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
			"environment": environment,
		})
	}
}
