package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// TokenVerifier validates a bearer token with the identity provider and
// returns the authenticated user id.
type TokenVerifier interface {
	VerifyIDToken(token string) (string, error)
}

// Auth verifies the Authorization header when present and stores the caller's
// user id in the request context. Requests without a token pass through;
// handlers that need an identity check it themselves (the device firmware
// endpoints post without one).
func Auth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")
		uid, err := verifier.VerifyIDToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token: " + err.Error()})
			c.Abort()
			return
		}

		c.Set("user_id", uid)
		c.Next()
	}
}
