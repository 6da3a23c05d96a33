package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	pkgAuth "github.com/polkiloo/atelier/internal/pkg/auth"
)

const (
	// AdminContextKey marks requests authenticated with the admin key.
	AdminContextKey = "admin"
	// ActorContextKey names who performed a privileged action.
	ActorContextKey = "actor"

	AdminKeyHeader = "X-Admin-Key"
	ActorHeader    = "X-Actor"
	defaultActor   = "admin"
)

// AdminRequired rejects requests without a valid admin key.
func AdminRequired(verifier pkgAuth.AdminVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(AdminKeyHeader)
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "admin key required"})
			return
		}
		if err := verifier.Verify(key); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid admin key"})
			return
		}
		markAdmin(c)
		c.Next()
	}
}

// AdminOptional marks the request privileged when a valid admin key is supplied.
// A wrong key is still rejected.
func AdminOptional(verifier pkgAuth.AdminVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(AdminKeyHeader)
		if key == "" {
			c.Next()
			return
		}
		if err := verifier.Verify(key); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid admin key"})
			return
		}
		markAdmin(c)
		c.Next()
	}
}

func markAdmin(c *gin.Context) {
	actor := strings.TrimSpace(c.GetHeader(ActorHeader))
	if actor == "" {
		actor = defaultActor
	}
	c.Set(AdminContextKey, true)
	c.Set(ActorContextKey, actor)
}
