package handlers

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/careapp/carecoord/internal/services"
	"github.com/careapp/carecoord/pkg/logger"
	"github.com/careapp/carecoord/pkg/response"
	appValidator "github.com/careapp/carecoord/pkg/validator"
)

const (
	msgInvalidBody = "Invalid request body!"
	msgInvalidDate = "Invalid date format! Use YYYY-MM-DD"
)

// bindJSON decodes the request body into dest. An empty body leaves dest untouched so
// field validation can report what is missing. A malformed body writes a 400 envelope.
func bindJSON(c *gin.Context, dest any) bool {
	if c.Request == nil || c.Request.Body == nil {
		return true
	}
	if err := c.ShouldBindJSON(dest); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, response.CodeBadRequest, msgInvalidBody)
		return false
	}
	return true
}

// checkRequest runs field validation on req. On failure it writes a 400 envelope whose
// message is chosen by describe and returns false.
func checkRequest(c *gin.Context, req any, describe func(appValidator.Result) string) bool {
	result := appValidator.Check(req)
	if result.OK() {
		return true
	}
	response.Error(c, response.CodeBadRequest, describe(result))
	return false
}

// fixedMessage describes every validation failure with the same message.
func fixedMessage(msg string) func(appValidator.Result) string {
	return func(appValidator.Result) string { return msg }
}

// validDate writes a 400 envelope and returns false when value is not YYYY-MM-DD.
func validDate(c *gin.Context, values ...string) bool {
	for _, value := range values {
		if _, err := services.ParseDate(value); err != nil {
			response.Error(c, response.CodeBadRequest, msgInvalidDate)
			return false
		}
	}
	return true
}

// respondError maps a store failure onto the envelope. Lookup misses become "404" with
// notFound (when set), bad dates become "400", and everything else becomes "500" with
// "Failed to <action>: <cause>".
func respondError(c *gin.Context, err error, notFound, action string) {
	switch {
	case notFound != "" && errors.Is(err, services.ErrNotFound):
		response.Error(c, response.CodeNotFound, notFound)
	case errors.Is(err, services.ErrInvalidDate):
		response.Error(c, response.CodeBadRequest, msgInvalidDate)
	default:
		logger.WithModule("handlers").Error("store operation failed",
			zap.String("action", action),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		response.Error(c, response.CodeServerError, "Failed to "+action+": "+err.Error())
	}
}
