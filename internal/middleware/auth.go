package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/careapp/carecoord/internal/auth"
	"github.com/careapp/carecoord/pkg/errors"
	"github.com/careapp/carecoord/pkg/response"
)

const (
	CtxClaimsKey         = "authClaims"
	CtxUserIDKey         = "userID"
	CtxOrganizationIDKey = "organizationID"
)

// Auth enforces JWT authentication using the supplied JWT service.
func Auth(jwt *iauth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if len(authz) < 8 || !strings.EqualFold(authz[:7], "Bearer ") {
			c.Header("WWW-Authenticate", "Bearer")
			response.AbortWithError(c, http.StatusOK, errors.ErrUnauthorized)
			return
		}

		token := strings.TrimSpace(authz[7:])
		claims, err := jwt.ValidateAccessToken(token)
		if err != nil {
			c.Header("WWW-Authenticate", "Bearer")
			response.AbortWithError(c, http.StatusOK, errors.ErrUnauthorized)
			return
		}

		c.Set(CtxClaimsKey, claims)
		c.Set(CtxUserIDKey, claims.UserID)
		if claims.OrganizationID != "" {
			c.Set(CtxOrganizationIDKey, claims.OrganizationID)
		}

		c.Next()
	}
}

// ClaimsFromContext returns the claims stored by Auth, if any.
func ClaimsFromContext(c *gin.Context) (*iauth.Claims, bool) {
	value, ok := c.Get(CtxClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*iauth.Claims)
	return claims, ok
}
