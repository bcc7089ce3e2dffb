package middleware

import (
	"net/http"
	"strings"

	"slotwise/utils"

	"github.com/gin-gonic/gin"
)

// Context keys set by IdentityMiddleware.
const (
	CtxActorID = "actorID"
	CtxRole    = "actorRole"
)

// IdentityMiddleware authenticates the bearer token and exposes the actor's
// id and role on the request context. Token issuance belongs to the identity
// collaborator; here we only verify.
func IdentityMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		identity, err := utils.ParseIdentity(tokenString, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(CtxActorID, identity.ActorID)
		c.Set(CtxRole, identity.Role)
		c.Next()
	}
}

// ActorID returns the authenticated actor id from the context.
func ActorID(c *gin.Context) string {
	if v, ok := c.Get(CtxActorID); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
