package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/careapp/carecoord/pkg/response"
)

// ServiceName identifies this backend in health payloads.
const ServiceName = "carecoord"

// Root answers the bare liveness probe with plain text.
func Root() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(http.StatusOK, "CareApp Backend is running!")
	}
}

// Health returns a simple status payload useful for readiness checks.
func Health(clock func() time.Time) gin.HandlerFunc {
	if clock == nil {
		clock = time.Now
	}
	return func(c *gin.Context) {
		response.Success(c, gin.H{
			"status":    "UP",
			"service":   ServiceName,
			"timestamp": clock().UTC().Format(time.RFC3339),
		}, "Service is healthy!")
	}
}
