package app

import (
	"time"

	"github.com/careapp/carecoord/internal/auth"
)

const defaultPasswordResetTTL = 15 * time.Minute

// JWTServiceConfig converts AuthConfig into the parameters expected by the JWT service.
func (c AuthConfig) JWTServiceConfig() auth.JWTConfig {
	ttl := c.JWT.TTL
	if ttl <= 0 {
		ttl = auth.DefaultAccessTokenTTL
	}

	return auth.JWTConfig{
		Secret:         c.JWT.Secret,
		Issuer:         c.JWT.Issuer,
		AccessTokenTTL: ttl,
	}
}

// ResetTTL returns how long password reset tokens stay valid.
func (c AuthConfig) ResetTTL() time.Duration {
	if c.PasswordResetTTL <= 0 {
		return defaultPasswordResetTTL
	}
	return c.PasswordResetTTL
}
