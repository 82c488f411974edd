package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/retailsync/catalog-sync/internal/core/cache"
	"github.com/retailsync/catalog-sync/internal/httpapi/response"
	pkgjwt "github.com/retailsync/catalog-sync/pkg/jwt"
)

// Auth requires a Bearer token that is both a valid JWT and backed by a
// live session row, so POST /auth/logout can revoke a token before its
// own expiry claim elapses.
func Auth(manager *pkgjwt.Manager, store *cache.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			response.Unauthorized(c, "missing bearer token")
			c.Abort()
			return
		}

		claims, err := manager.ValidateToken(token)
		if err != nil {
			response.Unauthorized(c, "invalid token")
			c.Abort()
			return
		}

		sess, found, err := store.GetSession(c.Request.Context(), token)
		if err != nil {
			response.InternalError(c, "session lookup failed")
			c.Abort()
			return
		}
		if !found {
			response.Unauthorized(c, "session expired or revoked")
			c.Abort()
			return
		}

		c.Set("username", claims.Username)
		c.Set("session_token", sess.Token)
		c.Next()
	}
}
