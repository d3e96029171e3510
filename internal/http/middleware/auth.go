// README: Firebase auth middleware; verifies the bearer token and exposes the caller's UID.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"fleetride/internal/infra"
)

const ctxKeyUID = "auth_uid"

// Auth verifies the Authorization bearer token and stores the verified UID on
// the request context. The caller's ROLE is deliberately not taken from token
// claims; services re-read it from the persisted user record.
func Auth(verifier infra.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "malformed authorization header"})
			return
		}
		token, err := verifier.VerifyIDToken(c.Request.Context(), raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(ctxKeyUID, token.UID)
		c.Next()
	}
}

// CallerUID returns the verified UID set by Auth, or "" when unauthenticated.
func CallerUID(c *gin.Context) string {
	return c.GetString(ctxKeyUID)
}
