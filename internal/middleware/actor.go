package middleware

import (
	"strings"

	"lexguard-go/pkg/log"
	"lexguard-go/pkg/token"

	"github.com/gin-gonic/gin"
)

// ActorKey is the gin context key holding the caller identity used for
// audit attribution.
const ActorKey = "actor"

// ActorIdentity resolves who is making the request. A valid Bearer token
// supplies the actor id; anything else falls back to the configured default
// rather than rejecting the request, since the endpoints themselves are
// open and the identity is only used for the audit trail.
func ActorIdentity(jwtManager *token.JWTManager, defaultActor string) gin.HandlerFunc {
	const bearerPrefix = "Bearer "
	return func(c *gin.Context) {
		actor := defaultActor

		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, bearerPrefix) {
			tokenString := strings.TrimPrefix(authHeader, bearerPrefix)
			subject, err := jwtManager.VerifyToken(tokenString)
			if err != nil {
				log.Warnf("[ActorIdentity] invalid bearer token, using default actor: %v", err)
			} else if subject != "" {
				actor = subject
			}
		}

		c.Set(ActorKey, actor)
		c.Next()
	}
}

// ActorFrom reads the resolved actor id from the gin context.
func ActorFrom(c *gin.Context) string {
	if v, ok := c.Get(ActorKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
