package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/careapp/carecoord/pkg/errors"
)

// Envelope codes. The code is a domain status tag; the transport status stays 200.
const (
	CodeOK              = "200"
	CodeBadRequest      = "400"
	CodeUnauthorized    = "401"
	CodeNotFound        = "404"
	CodeConflict        = "409"
	CodeTooManyRequests = "429"
	CodeServerError     = "500"
)

// Envelope is the uniform wrapper for every API reply.
type Envelope[T any] struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data T      `json:"data"`
}

// Response is the untyped envelope used when decoding replies.
type Response = Envelope[any]

// OK builds a success envelope.
func OK[T any](data T, msg string) Envelope[T] {
	return Envelope[T]{Code: CodeOK, Msg: msg, Data: data}
}

// Fail builds an error envelope with a null payload.
func Fail(code, msg string) Envelope[any] {
	return Envelope[any]{Code: code, Msg: msg}
}

// Success writes a success envelope.
func Success(c *gin.Context, data any, msg string) {
	c.JSON(http.StatusOK, OK(data, msg))
}

// Error writes an error envelope. Domain failures never change the transport status.
func Error(c *gin.Context, code, msg string) {
	c.JSON(http.StatusOK, Fail(code, msg))
}

// FromError writes an error envelope derived from an AppError.
func FromError(c *gin.Context, err error) {
	if err == nil {
		err = appErrors.ErrInternalServer
	}

	appErr := appErrors.FromError(err)
	code := appErr.Code
	if code == "" {
		code = CodeServerError
	}

	Error(c, code, appErr.Message)
}

// AbortWithError writes an error envelope and stops the middleware chain.
func AbortWithError(c *gin.Context, status int, err error) {
	appErr := appErrors.FromError(err)
	if appErr == nil {
		appErr = appErrors.ErrInternalServer
	}
	if status == 0 {
		status = http.StatusOK
	}
	c.AbortWithStatusJSON(status, Fail(appErr.Code, appErr.Message))
}
