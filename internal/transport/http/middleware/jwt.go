package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"ponyfiction/internal/pkg/httperr"
	"ponyfiction/internal/pkg/jwtutil"
	"ponyfiction/internal/transport/http/response"
)

const (
	ContextUserIDKey = "user_id"
	ContextLoginKey  = "login"
)

type TokenVerifier interface {
	VerifyAccessToken(ctx context.Context, token string) (*jwtutil.Claims, error)
}

// AuthJWT authenticates requests that carry a bearer token. Requests without
// an Authorization header pass through as guests.
func AuthJWT(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			c.Next()
			return
		}

		const prefix = "Bearer "
		if !strings.HasPrefix(authHeader, prefix) {
			response.Error(c, httperr.Unauthorized("invalid authorization scheme"))
			c.Abort()
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, prefix))
		claims, err := verifier.VerifyAccessToken(c.Request.Context(), token)
		if err != nil {
			response.Error(c, httperr.Unauthorized("invalid or expired token"))
			c.Abort()
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextLoginKey, claims.Login)
		c.Next()
	}
}
