package handlers

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
)

// Header fallbacks used when callers omit identity headers.
const (
	defaultOrganizationID = "org-001"
	defaultManagerID      = "manager-001"
	defaultPatientID      = "default-patient-001"
)

const (
	headerUserID         = "X-User-Id"
	headerOrganizationID = "X-Organization-Id"
	headerPatientID      = "X-Patient-Id"
	headerManagerID      = "X-Manager-Id"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

// headerOr returns the trimmed header value, or fallback when it is absent.
func headerOr(c *gin.Context, name, fallback string) string {
	if value := strings.TrimSpace(c.GetHeader(name)); value != "" {
		return value
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
