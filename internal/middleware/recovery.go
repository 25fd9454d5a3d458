package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/careapp/carecoord/pkg/errors"
	"github.com/careapp/carecoord/pkg/logger"
	"github.com/careapp/carecoord/pkg/response"
)

// Recovery converts panics into a "500" envelope and logs the error.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.WithModule("http").Error("panic",
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.Any("error", r),
				)
				response.AbortWithError(c, http.StatusOK, errors.ErrInternalServer)
			}
		}()
		c.Next()
	}
}

// NotFoundHandler answers unknown routes with a "404" envelope.
func NotFoundHandler(c *gin.Context) {
	response.AbortWithError(c, http.StatusOK, errors.NewNotFound("Route"))
}
